package emu

import "github.com/sarchlab/simtsim/insts"

// BranchUnit holds a warp's program counter and NZP flags and computes the
// next PC on every instruction retirement.
type BranchUnit struct {
	// PC is the address of the next instruction to fetch.
	PC uint8

	// Flags holds the NZP result of the most recent CMP.
	Flags insts.NZP
}

// NewBranchUnit creates a new BranchUnit with PC and flags at zero.
func NewBranchUnit() *BranchUnit {
	return &BranchUnit{}
}

// Taken returns true if the instruction is a branch whose condition
// matches the stored flags.
func (b *BranchUnit) Taken(inst insts.Instruction) bool {
	return inst.PCSelect && b.Flags&inst.Cond != 0
}

// NextPC returns the address of the instruction after inst.
func (b *BranchUnit) NextPC(inst insts.Instruction) uint8 {
	if b.Taken(inst) {
		return inst.Imm
	}
	return b.PC + 1
}

// Retire advances the PC past inst and latches cmp into the flags if inst
// writes flags. The branch decision uses the flags stored before inst.
func (b *BranchUnit) Retire(inst insts.Instruction, cmp insts.NZP) {
	b.PC = b.NextPC(inst)
	if inst.FlagsWrite {
		b.Flags = cmp & 0x7
	}
}

// Reset sets PC and flags to zero.
func (b *BranchUnit) Reset() {
	b.PC = 0
	b.Flags = 0
}
