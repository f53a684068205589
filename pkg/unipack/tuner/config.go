package tuner

// Worker limits for the extraction pool.
const (
	maxWorkers = 64
	minWorkers = 4

	// workersPerCore oversubscribes the CPU since writes mostly wait on disk.
	workersPerCore = 4
)

// payloadFraction is the share of available RAM that buffered asset payloads
// may occupy before a package is considered too large to extract in one pass.
const payloadFraction = 0.5

// Config holds tuned settings for one extraction.
type Config struct {
	// Workers is the number of concurrent file writers.
	Workers int

	// PayloadBudget is the number of payload bytes that may be held in
	// memory at once.
	PayloadBudget int64
}

// Calculate returns the configuration for the given resources.
//
// Workers is NumCPU*4 clamped to [4, 64]. PayloadBudget is half the
// available RAM.
func Calculate(resources SystemResources) Config {
	workers := resources.CPUCores * workersPerCore
	workers = max(workers, minWorkers)
	workers = min(workers, maxWorkers)

	return Config{
		Workers:       workers,
		PayloadBudget: int64(float64(resources.AvailableRAM) * payloadFraction),
	}
}

// CalculateWithOverrides applies a user worker override to Calculate.
// Overrides above the cap are clamped; zero or negative keeps the default.
func CalculateWithOverrides(resources SystemResources, workerOverride int) Config {
	cfg := Calculate(resources)
	if workerOverride > 0 {
		cfg.Workers = min(workerOverride, maxWorkers)
	}
	return cfg
}

// DefaultWorkers detects the host and returns the worker count to use when
// the caller has no preference. Detection failures fall back to minWorkers.
func DefaultWorkers() int {
	resources, err := Detect()
	if err != nil || resources.CPUCores <= 0 {
		return minWorkers
	}
	return Calculate(resources).Workers
}
