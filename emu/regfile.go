// Package emu provides the functional building blocks of a SIMT lane and a
// functional (untimed) kernel emulator.
package emu

import "github.com/sarchlab/simtsim/insts"

// RegFile represents the register file of one lane.
// R0-R12 are general purpose. R13-R15 are read-only and hold the block
// index, the block dimension and the lane's thread index.
type RegFile struct {
	// R holds all 16 registers, including the read-only ones.
	R [insts.NumRegs]uint8

	blockIdx  uint8
	blockDim  uint8
	threadIdx uint8
}

// NewRegFile creates a register file for the lane with the given thread
// index within its block.
func NewRegFile(threadIdx uint8) *RegFile {
	r := &RegFile{threadIdx: threadIdx}
	r.Reset()
	return r
}

// Bind sets the block the lane is running and re-derives the read-only
// registers.
func (r *RegFile) Bind(blockIdx, blockDim uint8) {
	r.blockIdx = blockIdx
	r.blockDim = blockDim
	r.deriveReadOnly()
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg uint8) uint8 {
	return r.R[reg&0xF]
}

// WriteReg writes a value to a register. Writes to R13-R15 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint8) {
	if reg >= insts.NumWritableRegs {
		return
	}
	r.R[reg] = value
}

// Reset clears the general-purpose registers.
func (r *RegFile) Reset() {
	for i := 0; i < insts.NumWritableRegs; i++ {
		r.R[i] = 0
	}
	r.deriveReadOnly()
}

func (r *RegFile) deriveReadOnly() {
	r.R[insts.RegBlockIdx] = r.blockIdx
	r.R[insts.RegBlockDim] = r.blockDim
	r.R[insts.RegThreadIdx] = r.threadIdx
}
