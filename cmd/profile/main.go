// Package main provides a profiling wrapper for SIMTSim to identify
// simulator performance bottlenecks.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/simtsim/benchmarks"
	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/loader"
	"github.com/sarchlab/simtsim/timing/config"
	"github.com/sarchlab/simtsim/timing/gpu"
)

var (
	emuMode    = flag.Bool("emu", false, "Profile the functional emulator instead of the timing model")
	cpuProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile = flag.String("memprofile", "", "write memory profile to file")
	iterations = flag.Int("n", 1000, "number of launches to run")
	kernelPath = flag.String("kernel", "", "Path to a kernel JSON file instead of a built-in kernel")
)

func main() {
	flag.Parse()

	bench, err := resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nUsage: profile [options] <kernel-name>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		atexit.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			atexit.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			atexit.Exit(1)
		}
		atexit.Register(func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		})
	}

	device := config.DefaultDeviceConfig()
	start := time.Now()

	var cycles, instructions uint64
	for i := 0; i < *iterations; i++ {
		var c, n uint64
		if *emuMode {
			n, err = runEmulation(bench, device)
		} else {
			c, n, err = runTiming(bench, device)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error in launch %d: %v\n", i, err)
			atexit.Exit(1)
		}
		cycles += c
		instructions += n
	}

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			atexit.Exit(1)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
		_ = f.Close()
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Kernel: %s\n", bench.Name)
	fmt.Printf("Launches: %d\n", *iterations)
	fmt.Printf("Warp instructions executed: %d\n", instructions)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if !*emuMode && cycles > 0 {
		fmt.Printf("Simulated cycles: %d\n", cycles)
		fmt.Printf("Cycles/second: %.0f\n", float64(cycles)/elapsed.Seconds())
	}
	if instructions > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instructions)/elapsed.Seconds())
	}
	atexit.Exit(0)
}

func resolve() (benchmarks.Benchmark, error) {
	if *kernelPath != "" {
		k, err := loader.Load(*kernelPath)
		if err != nil {
			return benchmarks.Benchmark{}, err
		}
		return benchmarks.FromKernel(k), nil
	}
	if flag.NArg() < 1 {
		return benchmarks.Benchmark{}, fmt.Errorf("no kernel given")
	}
	return benchmarks.Lookup(flag.Arg(0))
}

// runEmulation runs one launch on the functional emulator.
func runEmulation(bench benchmarks.Benchmark, device *config.DeviceConfig) (uint64, error) {
	program := emu.NewMemory(16)
	program.Load(bench.Program)
	data := emu.NewMemory(device.DataBits)
	if bench.Setup != nil {
		bench.Setup(data)
	}

	e := emu.NewEmulator(program, data, device.ThreadsPerBlock)
	err := e.Run(bench.Threads)
	return e.InstructionCount(), err
}

// runTiming runs one launch on the timing model.
func runTiming(bench benchmarks.Benchmark, device *config.DeviceConfig) (uint64, uint64, error) {
	g, err := gpu.NewGPU(device, gpu.WithMaxCycles(1_000_000))
	if err != nil {
		return 0, 0, err
	}
	if bench.Setup != nil {
		bench.Setup(g.DataMemory())
	}
	if err := g.LoadProgram(bench.Program); err != nil {
		return 0, 0, err
	}
	if err := g.SetThreadCount(bench.Threads); err != nil {
		return 0, 0, err
	}
	if err := g.Start(); err != nil {
		return 0, 0, err
	}
	err = g.Run()
	stats := g.Stats()
	return stats.Cycles, stats.Instructions, err
}
