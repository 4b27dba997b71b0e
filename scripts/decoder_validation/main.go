// Validate the decoder against the assembler over every 16-bit word and
// measure decode throughput.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/sarchlab/simtsim/insts"
)

func main() {
	decoder := insts.NewDecoder()

	var valid, unknown, mismatches int
	for w := 0; w <= 0xFFFF; w++ {
		inst := decoder.Decode(uint16(w))
		if inst.Format == insts.FormatUnknown {
			unknown++
			continue
		}
		valid++

		text := inst.String()
		words, err := insts.Assemble(text)
		if err != nil {
			mismatches++
			if mismatches <= 10 {
				fmt.Printf("0x%04X %-24s does not assemble: %v\n", w, text, err)
			}
			continue
		}
		if again := decoder.Decode(words[0]).String(); again != text {
			mismatches++
			if mismatches <= 10 {
				fmt.Printf("0x%04X %-24s reassembles as %s\n", w, text, again)
			}
		}
	}

	fmt.Printf("Decoded words:  %d\n", valid)
	fmt.Printf("Unknown words:  %d\n", unknown)
	fmt.Printf("Mismatches:     %d\n", mismatches)

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100
	for i := 0; i < iterations; i++ {
		for w := 0; w <= 0xFFFF; w++ {
			_ = decoder.Decode(uint16(w))
		}
	}
	elapsed := time.Since(start)

	runtime.ReadMemStats(&m2)

	decodes := float64(iterations) * 0x10000
	fmt.Printf("\nDecode performance:\n")
	fmt.Printf("  %d decodes in %v\n", int(decodes), elapsed)
	fmt.Printf("  %.1f ns/decode\n", float64(elapsed.Nanoseconds())/decodes)
	fmt.Printf("  %.3f allocs/decode\n", float64(m2.Mallocs-m1.Mallocs)/decodes)

	if mismatches > 0 {
		os.Exit(1)
	}
}
