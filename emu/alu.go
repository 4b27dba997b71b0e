package emu

import "github.com/sarchlab/simtsim/insts"

// ALU implements the per-lane arithmetic and comparison logic.
// It is combinational and holds no state.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Compute performs an 8-bit arithmetic operation. Results wrap modulo 256.
// Division truncates; division by zero yields 0.
func (a *ALU) Compute(op insts.ALUOp, x, y uint8) uint8 {
	switch op {
	case insts.ALUAdd:
		return x + y
	case insts.ALUSub:
		return x - y
	case insts.ALUMul:
		return x * y
	case insts.ALUDiv:
		if y == 0 {
			return 0
		}
		return x / y
	}
	return 0
}

// Compare returns the NZP flags of an unsigned comparison of x and y.
func (a *ALU) Compare(x, y uint8) insts.NZP {
	switch {
	case x < y:
		return insts.NZPNegative
	case x == y:
		return insts.NZPZero
	default:
		return insts.NZPPositive
	}
}

// Execute evaluates the ALU output selected by the decoded instruction:
// the comparison flags for CMP, the arithmetic result otherwise.
func (a *ALU) Execute(inst insts.Instruction, x, y uint8) uint8 {
	if inst.ALUCompare {
		return uint8(a.Compare(x, y))
	}
	return a.Compute(inst.ALUOp, x, y)
}
