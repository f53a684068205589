//go:build !darwin

package tuner

import "runtime"

// defaultTotalRAM is assumed when the platform offers no cheap way to read
// physical memory.
const defaultTotalRAM = 8 * 1024 * 1024 * 1024

// Detect reads the core count from the runtime and assumes defaultTotalRAM.
//
// TODO: read MemAvailable from /proc/meminfo on linux.
func Detect() (SystemResources, error) {
	return SystemResources{
		CPUCores:     runtime.NumCPU(),
		TotalRAM:     defaultTotalRAM,
		AvailableRAM: defaultTotalRAM / 2,
	}, nil
}
