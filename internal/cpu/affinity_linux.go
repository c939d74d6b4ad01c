//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCore pins the current OS thread to a single CPU core.
// Must be called after runtime.LockOSThread().
// cpuID is folded into [0, runtime.NumCPU()-1].
func pinToCore(cpuID int) (int, error) {
	cpuID = foldCPU(cpuID)

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	if err := unix.SchedSetaffinity(0, &mask); err != nil { // 0 = current thread
		return -1, err
	}
	return cpuID, nil
}

// SetupWorkerAffinity locks the calling goroutine to its OS thread and pins that
// thread to the core derived from workerID. The returned func undoes the lock.
// The pinned core (or -1 when pinning failed) is reported for logging.
func SetupWorkerAffinity(workerID int) (core int, release func()) {
	runtime.LockOSThread()
	core, err := pinToCore(workerID)
	if err != nil {
		core = -1
	}
	return core, runtime.UnlockOSThread
}
