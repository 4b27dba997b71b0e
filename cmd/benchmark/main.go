// Command benchmark runs the SIMTSim kernel harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv       Output results in CSV format (default: human-readable)
//	-json      Output a JSON report
//	-config    Device configuration JSON file
//	-quick     Run only the core kernels
//	-no-check  Skip the cross-check against the functional emulator
//
// Example:
//
//	# Run all kernels with human-readable output
//	go run ./cmd/benchmark
//
//	# Compare two device configurations in a spreadsheet
//	go run ./cmd/benchmark -csv -config wide.json > wide.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/simtsim/benchmarks"
	"github.com/sarchlab/simtsim/timing/config"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output a JSON report")
	configPath := flag.String("config", "", "Device configuration JSON file")
	quick := flag.Bool("quick", false, "Run only the core kernels")
	noCheck := flag.Bool("no-check", false, "Skip the emulator cross-check")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	cfg := benchmarks.DefaultConfig()
	cfg.CrossCheck = !*noCheck
	cfg.Verbose = *verbose
	cfg.Output = os.Stdout

	if *configPath != "" {
		device, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading device config: %v\n", err)
			atexit.Exit(1)
		}
		cfg.Device = device
	}

	harness := benchmarks.NewHarness(cfg)
	if *quick {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetKernels())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("SIMTSim Kernel Harness")
		fmt.Println("======================")
		fmt.Printf("Cores: %d\n", cfg.Device.NumCores)
		fmt.Printf("Threads per block: %d\n", cfg.Device.ThreadsPerBlock)
		fmt.Printf("Data channels: %d (latency %d)\n",
			cfg.Device.DataChannels, cfg.Device.MemoryLatency)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			atexit.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	for _, r := range results {
		if !r.Verified || (cfg.CrossCheck && !r.MatchesEmulator) {
			atexit.Exit(2)
		}
	}
	atexit.Exit(0)
}
