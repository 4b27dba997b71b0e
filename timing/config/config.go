// Package config holds the device configuration of the SIMT simulator.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/akita/v4/sim"
)

// DeviceConfig describes the simulated device. It is fixed for the
// lifetime of a GPU instance.
type DeviceConfig struct {
	// NumCores is the number of compute cores. Default: 2.
	NumCores int `json:"num_cores"`

	// ThreadsPerBlock is the number of lanes in every core, and thus the
	// number of threads in a block. Must be a power of two. Default: 4.
	ThreadsPerBlock int `json:"threads_per_block"`

	// WarpSize is the number of lanes sharing one program counter. Must
	// divide ThreadsPerBlock. 0 means one warp per core. Default: 0.
	WarpSize int `json:"warp_size"`

	// WarpSwitchStall is the number of cycles a warp may stall in the Fetch
	// stage before the scheduler switches to another warp. 0 disables
	// switching on stalls. Default: 8.
	WarpSwitchStall int `json:"warp_switch_stall"`

	// ProgramChannels is the number of program store channels. Default: 1.
	ProgramChannels int `json:"program_channels"`

	// DataChannels is the number of data store channels. Default: 4.
	DataChannels int `json:"data_channels"`

	// MemoryLatency is the number of cycles a backing store takes to
	// respond to a request. Default: 1 cycle.
	MemoryLatency int `json:"memory_latency"`

	// DataBits is the width of a data word. Default: 8 bits.
	DataBits int `json:"data_bits"`

	// Freq is the core clock, used to report simulated time.
	// Default: 1 GHz.
	Freq sim.Freq `json:"freq"`
}

// DefaultDeviceConfig returns the default two-core device.
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		NumCores:        2,
		ThreadsPerBlock: 4,
		WarpSize:        0,
		WarpSwitchStall: 8,
		ProgramChannels: 1,
		DataChannels:    4,
		MemoryLatency:   1,
		DataBits:        8,
		Freq:            1 * sim.GHz,
	}
}

// LoadConfig loads a DeviceConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*DeviceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read device config file: %w", err)
	}

	config := DefaultDeviceConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse device config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid device config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a DeviceConfig to a JSON file.
func (c *DeviceConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize device config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write device config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a buildable device.
func (c *DeviceConfig) Validate() error {
	if c.NumCores <= 0 {
		return fmt.Errorf("num_cores must be > 0")
	}
	if c.ThreadsPerBlock <= 0 || c.ThreadsPerBlock&(c.ThreadsPerBlock-1) != 0 {
		return fmt.Errorf("threads_per_block must be a power of two, got %d", c.ThreadsPerBlock)
	}
	if c.ThreadsPerBlock > 128 {
		return fmt.Errorf("threads_per_block must be <= 128, got %d", c.ThreadsPerBlock)
	}
	if c.WarpSize < 0 || (c.WarpSize > 0 && c.ThreadsPerBlock%c.WarpSize != 0) {
		return fmt.Errorf("warp_size must divide threads_per_block, got %d", c.WarpSize)
	}
	if c.WarpSwitchStall < 0 {
		return fmt.Errorf("warp_switch_stall must be >= 0")
	}
	if c.ProgramChannels <= 0 {
		return fmt.Errorf("program_channels must be > 0")
	}
	if c.DataChannels <= 0 {
		return fmt.Errorf("data_channels must be > 0")
	}
	if c.MemoryLatency <= 0 {
		return fmt.Errorf("memory_latency must be > 0")
	}
	if c.DataBits < 1 || c.DataBits > 8 {
		return fmt.Errorf("data_bits must be in [1, 8], got %d", c.DataBits)
	}
	if c.Freq <= 0 {
		return fmt.Errorf("freq must be > 0")
	}
	return nil
}

// Clone returns a copy of the DeviceConfig.
func (c *DeviceConfig) Clone() *DeviceConfig {
	clone := *c
	return &clone
}

// LanesPerWarp returns the effective warp size.
func (c *DeviceConfig) LanesPerWarp() int {
	if c.WarpSize == 0 {
		return c.ThreadsPerBlock
	}
	return c.WarpSize
}

// WarpsPerCore returns the number of warps each core hosts.
func (c *DeviceConfig) WarpsPerCore() int {
	return c.ThreadsPerBlock / c.LanesPerWarp()
}

// SimulatedSeconds converts a cycle count into simulated time.
func (c *DeviceConfig) SimulatedSeconds(cycles uint64) float64 {
	return float64(cycles) / float64(c.Freq)
}
