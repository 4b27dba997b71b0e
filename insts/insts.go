// Package insts provides the SIMT instruction set definitions, decoding,
// disassembly and a small assembler.
//
// Instructions are fixed 16-bit words:
//
//	[15:12] opcode  [11:8] Rd  [7:4] Rs  [3:0] Rt
//
// with an 8-bit immediate overlapping Rs/Rt and a 3-bit NZP branch
// condition overlapping the top of Rd.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x3004) // ADD R0, R0, R4
//	fmt.Printf("Op: %v, Rd: %d, Rs: %d, Rt: %d\n", inst.Op, inst.Rd, inst.Rs, inst.Rt)
package insts

// Register file layout shared by every lane.
const (
	// NumRegs is the number of registers addressable by a 4-bit field.
	NumRegs = 16
	// NumWritableRegs is the number of general-purpose registers (R0-R12).
	NumWritableRegs = 13

	// RegBlockIdx holds the index of the block the lane is running.
	RegBlockIdx uint8 = 13
	// RegBlockDim holds the number of threads per block.
	RegBlockDim uint8 = 14
	// RegThreadIdx holds the lane's thread index within the block.
	RegThreadIdx uint8 = 15
)

// AddrSpace is the number of words addressable by an 8-bit address, for
// both the program store and the data store.
const AddrSpace = 256
