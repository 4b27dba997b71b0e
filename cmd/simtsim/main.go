// Package main provides the entry point for SIMTSim.
// SIMTSim is a cycle-level model of a small SIMT processor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/simtsim/benchmarks"
	"github.com/sarchlab/simtsim/loader"
	"github.com/sarchlab/simtsim/monitor"
	"github.com/sarchlab/simtsim/timing/config"
	"github.com/sarchlab/simtsim/trace"
)

var (
	kernelPath  = flag.String("kernel", "", "Path to a kernel JSON file")
	benchName   = flag.String("benchmark", "", "Name of a built-in kernel")
	listKernels = flag.Bool("list", false, "List the built-in kernels and exit")
	configPath  = flag.String("config", "", "Path to device configuration JSON file")
	emuMode     = flag.Bool("emu", false, "Run the functional emulator instead of the timing model")
	threads     = flag.Int("threads", -1, "Override the kernel thread count")
	maxCycles   = flag.Uint64("max-cycles", 1_000_000, "Give up after this many cycles (0 = no limit)")
	traceCycles = flag.Bool("trace", false, "Print the device state after every cycle")
	traceRegs   = flag.Bool("regs", false, "Include lane registers in the trace")
	noColor     = flag.Bool("no-color", false, "Disable colored trace output")
	monitorAddr = flag.String("monitor", "", "Serve the device state over HTTP on this address")
	jsonOut     = flag.Bool("json", false, "Print statistics as JSON")
	dumpWords   = flag.Int("dump", 0, "Print the first N data words after the run")
	verbose     = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if *listKernels {
		for _, b := range benchmarks.GetKernels() {
			fmt.Printf("%-10s %s\n", b.Name, b.Description)
		}
		atexit.Exit(0)
	}

	bench, err := resolveKernel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nUsage: simtsim [options] (-kernel <file> | -benchmark <name>)\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		atexit.Exit(1)
	}

	if *threads >= 0 {
		bench.Threads = *threads
	}

	device := config.DefaultDeviceConfig()
	if *configPath != "" {
		device, err = config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading device config: %v\n", err)
			atexit.Exit(1)
		}
	}

	if *verbose {
		fmt.Printf("Kernel: %s (%d threads, %d words)\n",
			bench.Name, bench.Threads, len(bench.Program))
		fmt.Printf("Device: %d cores, %d threads per block, %d data channels\n",
			device.NumCores, device.ThreadsPerBlock, device.DataChannels)
	}

	if *emuMode {
		atexit.Exit(runEmulation(bench, device))
	}
	atexit.Exit(runTimingMode(bench, device))
}

func resolveKernel() (benchmarks.Benchmark, error) {
	switch {
	case *kernelPath != "" && *benchName != "":
		return benchmarks.Benchmark{}, errors.New("-kernel and -benchmark are mutually exclusive")
	case *kernelPath != "":
		k, err := loader.Load(*kernelPath)
		if err != nil {
			return benchmarks.Benchmark{}, err
		}
		return benchmarks.FromKernel(k), nil
	case *benchName != "":
		return benchmarks.Lookup(*benchName)
	case flag.NArg() > 0:
		k, err := loader.Load(flag.Arg(0))
		if err != nil {
			return benchmarks.Benchmark{}, err
		}
		return benchmarks.FromKernel(k), nil
	}
	return benchmarks.Benchmark{}, errors.New("no kernel given")
}

func runEmulation(bench benchmarks.Benchmark, device *config.DeviceConfig) int {
	data, count, err := emulate(bench, device, *maxCycles)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Kernel: %s\n", bench.Name)
	fmt.Printf("Warp instructions executed: %d\n", count)
	if *dumpWords > 0 {
		printWords(os.Stdout, data, *dumpWords)
	}

	if err := verify(bench, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func runTimingMode(bench benchmarks.Benchmark, device *config.DeviceConfig) int {
	opts := runOptions{Device: device, MaxCycles: *maxCycles}

	if *traceCycles {
		printerOpts := []trace.Option{}
		if *traceRegs {
			printerOpts = append(printerOpts, trace.WithRegisters())
		}
		if *noColor {
			printerOpts = append(printerOpts, trace.WithoutColor())
		}
		printer := trace.NewPrinter(os.Stdout, printerOpts...)
		atexit.Register(func() { _ = printer.Flush() })
		opts.Tracers = append(opts.Tracers, printer)
	}

	var mon *monitor.Server
	if *monitorAddr != "" {
		mon = monitor.NewServer()
		opts.Tracers = append(opts.Tracers, mon)
		startMonitor(mon, *monitorAddr)
	}

	g, err := simulate(bench, opts)
	if mon != nil && g != nil {
		mon.UpdateStats(g.Stats())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	stats := g.Stats()
	if *jsonOut {
		if err := printStatsJSON(os.Stdout, bench, stats); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	} else {
		printStats(os.Stdout, bench, stats)
	}
	if *dumpWords > 0 {
		printWords(os.Stdout, g.DataMemory(), *dumpWords)
	}

	code := 0
	if err := verify(bench, g.DataMemory()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code = 2
	}

	if mon != nil {
		fmt.Fprintf(os.Stderr, "Monitor on %s, press Ctrl-C to exit\n", *monitorAddr)
		waitForInterrupt()
	}
	return code
}

func startMonitor(mon *monitor.Server, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           mon.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Monitor error: %v\n", err)
		}
	}()

	atexit.Register(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

func waitForInterrupt() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	<-ch
}
