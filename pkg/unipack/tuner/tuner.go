// Package tuner sizes the extraction worker pool and the in-memory payload
// budget from the resources of the host.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is an estimate of the RAM free for use, in bytes.
	AvailableRAM int64
}
