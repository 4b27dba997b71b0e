package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sarchlab/simtsim/benchmarks"
	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/loader"
	"github.com/sarchlab/simtsim/timing/config"
	"github.com/sarchlab/simtsim/timing/gpu"
)

// runOptions configures a single timing run.
type runOptions struct {
	Device    *config.DeviceConfig
	MaxCycles uint64
	Tracers   []gpu.Tracer
}

// simulate runs a kernel on the timing model. The returned GPU is non-nil
// whenever the device could be built, so statistics are available even
// when the run fails.
func simulate(bench benchmarks.Benchmark, opts runOptions) (*gpu.GPU, error) {
	gpuOpts := []gpu.Option{gpu.WithMaxCycles(opts.MaxCycles)}
	for _, t := range opts.Tracers {
		gpuOpts = append(gpuOpts, gpu.WithTracer(t))
	}

	g, err := gpu.NewGPU(opts.Device, gpuOpts...)
	if err != nil {
		return nil, err
	}

	if bench.Setup != nil {
		bench.Setup(g.DataMemory())
	}
	if err := g.LoadProgram(bench.Program); err != nil {
		return g, err
	}
	if err := g.SetThreadCount(bench.Threads); err != nil {
		return g, err
	}
	if err := g.Start(); err != nil {
		return g, err
	}

	return g, g.Run()
}

// emulate runs a kernel on the functional emulator and returns the final
// data store and the number of warp instructions executed.
func emulate(
	bench benchmarks.Benchmark,
	device *config.DeviceConfig,
	maxInstructions uint64,
) (*emu.Memory, uint64, error) {
	if err := device.Validate(); err != nil {
		return nil, 0, err
	}
	if _, err := config.NewLaunchConfig(device, bench.Threads); err != nil {
		return nil, 0, err
	}

	program := emu.NewMemory(16)
	program.Load(bench.Program)
	data := emu.NewMemory(device.DataBits)
	if bench.Setup != nil {
		bench.Setup(data)
	}

	e := emu.NewEmulator(program, data, device.ThreadsPerBlock,
		emu.WithMaxInstructions(maxInstructions))
	if err := e.Run(bench.Threads); err != nil {
		return data, e.InstructionCount(), err
	}
	return data, e.InstructionCount(), nil
}

func verify(bench benchmarks.Benchmark, data *emu.Memory) error {
	k := &loader.Kernel{Name: bench.Name, Expect: bench.Expect}
	return k.Verify(data)
}

func printStats(w io.Writer, bench benchmarks.Benchmark, s gpu.Statistics) {
	total := s.Cycles
	if total == 0 {
		total = 1
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Kernel: %s\n", bench.Name)
	fmt.Fprintf(w, "Launch: %s\n", s.LaunchID)
	fmt.Fprintf(w, "Threads: %d\n", bench.Threads)
	fmt.Fprintf(w, "Total Cycles: %d\n", s.Cycles)
	fmt.Fprintf(w, "Warp Instructions: %d\n", s.Instructions)
	fmt.Fprintf(w, "CPI: %.2f\n", s.CPI())
	fmt.Fprintf(w, "Simulated Time: %.3g s\n", s.Seconds)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Breakdown (core-cycles):\n")
	fmt.Fprintf(w, "  Active:       %6d\n", s.ActiveCoreCycles)
	fmt.Fprintf(w, "  Fetch stalls: %6d (%5.1f%%)\n",
		s.FetchStalls, 100.0*float64(s.FetchStalls)/float64(total))
	fmt.Fprintf(w, "  Mem stalls:   %6d (%5.1f%%)\n",
		s.MemStalls, 100.0*float64(s.MemStalls)/float64(total))
	fmt.Fprintf(w, "  Warp switches: %d\n", s.WarpSwitches)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Memory:\n")
	fmt.Fprintf(w, "  Program reads: %d\n", s.ProgramReads)
	fmt.Fprintf(w, "  Data reads:    %d\n", s.DataReads)
	fmt.Fprintf(w, "  Data writes:   %d\n", s.DataWrites)
	fmt.Fprintf(w, "  Queue cycles:  %d\n", s.DataQueueCycles)
}

func printStatsJSON(w io.Writer, bench benchmarks.Benchmark, s gpu.Statistics) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Kernel  string `json:"kernel"`
		Threads int    `json:"threads"`
		gpu.Statistics
		CPI float64 `json:"cpi"`
	}{bench.Name, bench.Threads, s, s.CPI()})
}

func printWords(w io.Writer, data *emu.Memory, n int) {
	words := data.Words(n)
	for i := 0; i < len(words); i += 8 {
		end := i + 8
		if end > len(words) {
			end = len(words)
		}
		fmt.Fprintf(w, "%3d:", i)
		for _, v := range words[i:end] {
			fmt.Fprintf(w, " %4d", v)
		}
		fmt.Fprintln(w)
	}
}
