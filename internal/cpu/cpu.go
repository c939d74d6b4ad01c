// Package cpu binds pool workers to CPU cores.
package cpu

import "runtime"

// foldCPU maps any worker index onto a valid core index.
func foldCPU(id int) int {
	n := runtime.NumCPU()
	if id < 0 {
		id = -id
	}
	return id % n
}
