package emu

import (
	"fmt"

	"github.com/sarchlab/simtsim/insts"
)

// Emulator executes a kernel launch functionally: every block runs to
// completion, one instruction at a time across all of its active lanes,
// with no pipeline or memory timing. It is the reference model the timing
// simulator is checked against.
type Emulator struct {
	program *Memory
	data    *Memory
	decoder *insts.Decoder
	alu     *ALU

	threadsPerBlock int

	// Execution state
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of warp instructions a single
// block may execute. A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates an emulator over the given program and data stores.
func NewEmulator(
	program, data *Memory,
	threadsPerBlock int,
	opts ...EmulatorOption,
) *Emulator {
	e := &Emulator{
		program:         program,
		data:            data,
		decoder:         insts.NewDecoder(),
		alu:             NewALU(),
		threadsPerBlock: threadsPerBlock,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// InstructionCount returns the number of warp instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Run executes every block of a launch with totalThreads threads.
func (e *Emulator) Run(totalThreads int) error {
	if e.threadsPerBlock <= 0 {
		return fmt.Errorf("threads per block must be > 0, got %d", e.threadsPerBlock)
	}
	if totalThreads < 0 {
		return fmt.Errorf("thread count must be >= 0, got %d", totalThreads)
	}

	numBlocks := (totalThreads + e.threadsPerBlock - 1) / e.threadsPerBlock
	for block := 0; block < numBlocks; block++ {
		if err := e.runBlock(block, totalThreads); err != nil {
			return fmt.Errorf("block %d: %w", block, err)
		}
	}

	return nil
}

func (e *Emulator) runBlock(block, totalThreads int) error {
	var lanes []*RegFile
	for i := 0; i < e.threadsPerBlock; i++ {
		if block*e.threadsPerBlock+i >= totalThreads {
			break
		}
		regs := NewRegFile(uint8(i))
		regs.Bind(uint8(block), uint8(e.threadsPerBlock))
		lanes = append(lanes, regs)
	}

	branch := NewBranchUnit()
	loaded := make([]uint8, len(lanes))
	results := make([]uint8, len(lanes))
	var executed uint64

	for {
		if e.maxInstructions > 0 && executed >= e.maxInstructions {
			return fmt.Errorf("exceeded %d instructions", e.maxInstructions)
		}

		inst := e.decoder.Decode(e.program.Read(branch.PC))
		executed++
		e.instructionCount++

		for i, regs := range lanes {
			rs := regs.ReadReg(inst.Rs)
			rt := regs.ReadReg(inst.Rt)

			if inst.MemRead {
				loaded[i] = uint8(e.data.Read(rs))
			}
			if inst.MemWrite {
				e.data.Write(rs, uint16(rt))
			}
			results[i] = e.alu.Execute(inst, rs, rt)
		}

		for i, regs := range lanes {
			if !inst.RegWrite {
				break
			}
			switch inst.ResultSrc {
			case insts.ResultALU:
				regs.WriteReg(inst.Rd, results[i])
			case insts.ResultLSU:
				regs.WriteReg(inst.Rd, loaded[i])
			case insts.ResultImmediate:
				regs.WriteReg(inst.Rd, inst.Imm)
			}
		}

		// The warp follows its first lane for flags.
		var cmp insts.NZP
		if len(lanes) > 0 {
			cmp = insts.NZP(results[0])
		}
		branch.Retire(inst, cmp)

		if inst.Halt {
			return nil
		}
	}
}
