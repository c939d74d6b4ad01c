//go:build !linux

package cpu

import "runtime"

// SetupWorkerAffinity locks the goroutine to an OS thread.
// CPU pinning is only available on Linux, so the reported core is always -1.
func SetupWorkerAffinity(workerID int) (core int, release func()) {
	runtime.LockOSThread()
	return -1, runtime.UnlockOSThread
}
