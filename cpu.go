package parsum

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// HardwareParallelism returns the number of CPUs this process may run on.
func HardwareParallelism() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		if n := set.Count(); n > 0 {
			return n
		}
	}
	return runtime.NumCPU()
}
