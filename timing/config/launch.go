package config

import "fmt"

// LaunchConfig is the per-launch configuration written before start. It is
// passed explicitly to the dispatcher and to each core on block assignment.
type LaunchConfig struct {
	// TotalThreads is the number of threads in the launch.
	TotalThreads int `json:"total_threads"`

	// ThreadsPerBlock mirrors DeviceConfig.ThreadsPerBlock.
	ThreadsPerBlock int `json:"threads_per_block"`
}

// NewLaunchConfig creates a LaunchConfig for the given device.
func NewLaunchConfig(device *DeviceConfig, totalThreads int) (*LaunchConfig, error) {
	if totalThreads < 0 {
		return nil, fmt.Errorf("thread count must be >= 0, got %d", totalThreads)
	}
	limit := 256 * device.ThreadsPerBlock
	if totalThreads > limit {
		return nil, fmt.Errorf("thread count %d exceeds %d (256 blocks of %d)",
			totalThreads, limit, device.ThreadsPerBlock)
	}

	return &LaunchConfig{
		TotalThreads:    totalThreads,
		ThreadsPerBlock: device.ThreadsPerBlock,
	}, nil
}

// NumBlocks returns ceil(TotalThreads / ThreadsPerBlock).
func (l *LaunchConfig) NumBlocks() int {
	if l.ThreadsPerBlock <= 0 {
		return 0
	}
	return (l.TotalThreads + l.ThreadsPerBlock - 1) / l.ThreadsPerBlock
}

// ThreadActive reports whether lane of block maps to a thread of the launch.
func (l *LaunchConfig) ThreadActive(block, lane int) bool {
	return block*l.ThreadsPerBlock+lane < l.TotalThreads
}
