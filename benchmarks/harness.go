// Package benchmarks runs canonical SIMT kernels on the timing model,
// checks their results and reports timing statistics.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/insts"
	"github.com/sarchlab/simtsim/loader"
	"github.com/sarchlab/simtsim/timing/config"
	"github.com/sarchlab/simtsim/timing/gpu"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// LaunchID tags the launch that produced this result
	LaunchID string `json:"launch_id"`

	// Threads is the launch size
	Threads int `json:"threads"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of warp instructions completed
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per warp instruction
	CPI float64 `json:"cpi"`

	FetchStalls     uint64 `json:"fetch_stalls"`
	MemStalls       uint64 `json:"mem_stalls"`
	WarpSwitches    uint64 `json:"warp_switches"`
	DataReads       uint64 `json:"data_reads"`
	DataWrites      uint64 `json:"data_writes"`
	DataQueueCycles uint64 `json:"data_queue_cycles"`

	// SimulatedSeconds is the simulated run time at the device clock
	SimulatedSeconds float64 `json:"simulated_seconds"`

	// Verified is true when every expected word matched
	Verified bool `json:"verified"`

	// MatchesEmulator is true when the data store equals the functional
	// emulator's after the same launch
	MatchesEmulator bool `json:"matches_emulator,omitempty"`

	// Error describes why the run failed, if it did
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark kernel.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Threads is the number of threads launched
	Threads int

	// Setup prepares the data store
	Setup func(data *emu.Memory)

	// Program is the kernel machine code
	Program []uint16

	// Expect lists the data words the kernel must produce
	Expect []loader.Expectation
}

// FromKernel turns a loaded kernel description into a benchmark.
func FromKernel(k *loader.Kernel) Benchmark {
	data := k.Data
	return Benchmark{
		Name:        k.Name,
		Description: k.Description,
		Threads:     k.Threads,
		Setup: func(mem *emu.Memory) {
			mem.Load(data)
		},
		Program: k.Program,
		Expect:  k.Expect,
	}
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Device is the simulated device. nil means the default device.
	Device *config.DeviceConfig

	// CrossCheck also runs every kernel on the functional emulator and
	// compares the data stores
	CrossCheck bool

	// MaxCycles bounds every run (0 = no limit)
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Device:     config.DefaultDeviceConfig(),
		CrossCheck: true,
		MaxCycles:  1_000_000,
		Output:     os.Stdout,
		Verbose:    false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(cfg HarnessConfig) *Harness {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Device == nil {
		cfg.Device = config.DefaultDeviceConfig()
	}
	return &Harness{
		config:     cfg,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "ran %s: %d cycles\n",
				result.Name, result.SimulatedCycles)
		}
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
		Threads:     bench.Threads,
	}

	var opts []gpu.Option
	if h.config.MaxCycles > 0 {
		opts = append(opts, gpu.WithMaxCycles(h.config.MaxCycles))
	}

	g, err := gpu.NewGPU(h.config.Device, opts...)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if bench.Setup != nil {
		bench.Setup(g.DataMemory())
	}
	initial := g.DataMemory().Words(insts.AddrSpace)

	if err := h.launch(g, bench); err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	err = g.Run()
	result.WallTime = time.Since(start)

	stats := g.Stats()
	result.LaunchID = stats.LaunchID
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.FetchStalls = stats.FetchStalls
	result.MemStalls = stats.MemStalls
	result.WarpSwitches = stats.WarpSwitches
	result.DataReads = stats.DataReads
	result.DataWrites = stats.DataWrites
	result.DataQueueCycles = stats.DataQueueCycles
	result.SimulatedSeconds = stats.Seconds

	if err != nil {
		result.Error = err.Error()
		return result
	}

	k := &loader.Kernel{Name: bench.Name, Expect: bench.Expect}
	if err := k.Verify(g.DataMemory()); err != nil {
		result.Error = err.Error()
	} else {
		result.Verified = true
	}

	if h.config.CrossCheck {
		result.MatchesEmulator = h.crossCheck(bench, initial, g.DataMemory())
	}

	return result
}

func (h *Harness) launch(g *gpu.GPU, bench Benchmark) error {
	if err := g.LoadProgram(bench.Program); err != nil {
		return err
	}
	if err := g.SetThreadCount(bench.Threads); err != nil {
		return err
	}
	return g.Start()
}

func (h *Harness) crossCheck(bench Benchmark, initial []uint16, got *emu.Memory) bool {
	program := emu.NewMemory(16)
	program.Load(bench.Program)
	data := emu.NewMemory(h.config.Device.DataBits)
	data.Load(initial)

	e := emu.NewEmulator(program, data, h.config.Device.ThreadsPerBlock,
		emu.WithMaxInstructions(h.config.MaxCycles))
	if err := e.Run(bench.Threads); err != nil {
		return false
	}

	want := data.Words(insts.AddrSpace)
	have := got.Words(insts.AddrSpace)
	for i := range want {
		if want[i] != have[i] {
			return false
		}
	}
	return true
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output
	_, _ = fmt.Fprintln(out, "=== SIMT Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(out, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(out, "  Threads: %d\n", r.Threads)
		_, _ = fmt.Fprintln(out, "  --- Timing ---")
		_, _ = fmt.Fprintf(out, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(out, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(out, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(out, "  Fetch Stalls:         %d\n", r.FetchStalls)
		_, _ = fmt.Fprintf(out, "  Mem Stalls:           %d\n", r.MemStalls)
		if r.WarpSwitches > 0 {
			_, _ = fmt.Fprintf(out, "  Warp Switches:        %d\n", r.WarpSwitches)
		}
		_, _ = fmt.Fprintln(out, "  --- Data Memory ---")
		_, _ = fmt.Fprintf(out, "  Reads:        %d\n", r.DataReads)
		_, _ = fmt.Fprintf(out, "  Writes:       %d\n", r.DataWrites)
		_, _ = fmt.Fprintf(out, "  Queue Cycles: %d\n", r.DataQueueCycles)

		_, _ = fmt.Fprintf(out, "  Verified: %v\n", r.Verified)
		if h.config.CrossCheck {
			_, _ = fmt.Fprintf(out, "  Matches Emulator: %v\n", r.MatchesEmulator)
		}
		if r.Error != "" {
			_, _ = fmt.Fprintf(out, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,threads,cycles,instructions,cpi,fetch_stalls,mem_stalls,warp_switches,data_reads,data_writes,verified")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%.3f,%d,%d,%d,%d,%d,%v\n",
			r.Name,
			r.Threads,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.FetchStalls,
			r.MemStalls,
			r.WarpSwitches,
			r.DataReads,
			r.DataWrites,
			r.Verified,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Device describes the simulated device
	Device *config.DeviceConfig `json:"device"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	Verified          int           `json:"verified"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions uint64        `json:"total_instructions"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// Summarize computes aggregate statistics over results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		s.TotalCycles += r.SimulatedCycles
		s.TotalInstructions += r.InstructionsRetired
		s.TotalWallTime += r.WallTime
		if r.Verified {
			s.Verified++
		}
	}
	if s.TotalInstructions > 0 {
		s.AverageCPI = float64(s.TotalCycles) / float64(s.TotalInstructions)
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Device:    h.config.Device,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
