// Package loader reads kernel description files: a program, the initial
// data store contents, the launch size and the expected results.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/insts"
)

// Expectation describes the words expected at consecutive data addresses
// after the kernel finishes.
type Expectation struct {
	Addr   uint8    `json:"addr"`
	Values []uint16 `json:"values"`
}

// Kernel is a loaded kernel description.
type Kernel struct {
	// Name identifies the kernel.
	Name string `json:"name"`

	// Description explains what the kernel computes.
	Description string `json:"description,omitempty"`

	// Threads is the number of threads to launch.
	Threads int `json:"threads"`

	// Source is the kernel in assembly. Either Source or Program is set.
	Source string `json:"source,omitempty"`

	// Program is the kernel as raw instruction words.
	Program []uint16 `json:"program,omitempty"`

	// Data is copied into the data store from address 0.
	Data []uint16 `json:"data,omitempty"`

	// Expect lists the results checked by Verify.
	Expect []Expectation `json:"expect,omitempty"`
}

// Load reads a kernel description from a JSON file.
func Load(path string) (*Kernel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kernel file: %w", err)
	}

	k, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}

// Parse decodes and validates a kernel description. Assembly sources are
// assembled into Program.
func Parse(data []byte) (*Kernel, error) {
	k := &Kernel{}
	if err := json.Unmarshal(data, k); err != nil {
		return nil, fmt.Errorf("failed to parse kernel: %w", err)
	}

	if err := k.assemble(); err != nil {
		return nil, err
	}
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *Kernel) assemble() error {
	if strings.TrimSpace(k.Source) == "" {
		return nil
	}
	if len(k.Program) > 0 {
		return fmt.Errorf("kernel %q sets both source and program", k.Name)
	}

	words, err := insts.Assemble(k.Source)
	if err != nil {
		return fmt.Errorf("failed to assemble kernel %q: %w", k.Name, err)
	}
	k.Program = words
	return nil
}

// Validate checks that the kernel fits the device address spaces.
func (k *Kernel) Validate() error {
	if len(k.Program) == 0 {
		return fmt.Errorf("kernel %q has no program", k.Name)
	}
	if len(k.Program) > insts.AddrSpace {
		return fmt.Errorf("kernel %q program has %d words, limit is %d",
			k.Name, len(k.Program), insts.AddrSpace)
	}
	if len(k.Data) > insts.AddrSpace {
		return fmt.Errorf("kernel %q data has %d words, limit is %d",
			k.Name, len(k.Data), insts.AddrSpace)
	}
	if k.Threads < 0 {
		return fmt.Errorf("kernel %q has negative thread count", k.Name)
	}
	for _, e := range k.Expect {
		if int(e.Addr)+len(e.Values) > insts.AddrSpace {
			return fmt.Errorf("kernel %q expectation at %d runs past the data store",
				k.Name, e.Addr)
		}
	}
	return nil
}

// Mismatch is one data word that differs from its expectation.
type Mismatch struct {
	Addr uint8
	Want uint16
	Got  uint16
}

// VerifyError lists every mismatching word.
type VerifyError struct {
	Kernel     string
	Mismatches []Mismatch
}

func (e *VerifyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "kernel %q: %d mismatching words", e.Kernel, len(e.Mismatches))
	for _, m := range e.Mismatches {
		fmt.Fprintf(&b, "; [%d] want %d got %d", m.Addr, m.Want, m.Got)
	}
	return b.String()
}

// Verify compares the data store against the kernel's expectations.
func (k *Kernel) Verify(data *emu.Memory) error {
	var mismatches []Mismatch
	for _, e := range k.Expect {
		for i, want := range e.Values {
			addr := e.Addr + uint8(i)
			if got := data.Read(addr); got != want {
				mismatches = append(mismatches, Mismatch{Addr: addr, Want: want, Got: got})
			}
		}
	}

	if len(mismatches) > 0 {
		return &VerifyError{Kernel: k.Name, Mismatches: mismatches}
	}
	return nil
}
