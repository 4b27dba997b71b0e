// Package insts provides the SIMT instruction set definitions and decoding.
package insts

// Op represents a 4-bit opcode.
type Op uint8

// Opcodes.
const (
	OpNOP   Op = 0b0000
	OpBRnzp Op = 0b0001
	OpCMP   Op = 0b0010
	OpADD   Op = 0b0011
	OpSUB   Op = 0b0100
	OpMUL   Op = 0b0101
	OpDIV   Op = 0b0110
	OpLDR   Op = 0b0111
	OpSTR   Op = 0b1000
	OpCONST Op = 0b1001
	OpRET   Op = 0b1111
)

// Format is the opcode class of a decoded instruction.
type Format uint8

// Opcode classes.
const (
	FormatUnknown Format = iota
	FormatNop            // No operation
	FormatBranch         // Conditional branch on stored flags
	FormatCompare        // Flag-setting comparison
	FormatArith          // ADD, SUB, MUL, DIV
	FormatLoad           // LDR
	FormatStore          // STR
	FormatConst          // Load immediate
	FormatHalt           // RET
)

// ALUOp selects the arithmetic operation of the ALU.
type ALUOp uint8

// Arithmetic selects, matching the low two bits of the arithmetic opcodes.
const (
	ALUAdd ALUOp = 0b00
	ALUSub ALUOp = 0b01
	ALUMul ALUOp = 0b10
	ALUDiv ALUOp = 0b11
)

// ResultSource selects where a register write takes its value from.
type ResultSource uint8

// Register input selects.
const (
	ResultALU ResultSource = iota
	ResultLSU
	ResultImmediate
)

// NZP is a 3-bit negative/zero/positive value. It is used both for the
// flags latched by CMP and for the condition field of BRnzp.
type NZP uint8

// NZP bits.
const (
	NZPPositive NZP = 0b001 // a > b
	NZPZero     NZP = 0b010 // a == b
	NZPNegative NZP = 0b100 // a < b
)

// Instruction is a decoded instruction together with the control signals
// it drives through the pipeline.
type Instruction struct {
	Word   uint16 `json:"word"`   // Raw instruction word
	Op     Op     `json:"op"`     // Operation code
	Format Format `json:"format"` // Opcode class

	Rd   uint8 `json:"rd"`   // Destination register
	Rs   uint8 `json:"rs"`   // First source register (address for LDR/STR)
	Rt   uint8 `json:"rt"`   // Second source register (data for STR)
	Imm  uint8 `json:"imm"`  // 8-bit immediate (CONST value, branch target)
	Cond NZP   `json:"cond"` // Branch condition

	// Control signals.
	RegWrite   bool         `json:"reg_write"`   // Write Rd in the Update stage
	MemRead    bool         `json:"mem_read"`    // Issue a data load
	MemWrite   bool         `json:"mem_write"`   // Issue a data store
	FlagsWrite bool         `json:"flags_write"` // Latch the compare result into the warp flags
	PCSelect   bool         `json:"pc_select"`   // Next PC comes from the branch unit
	ALUOp      ALUOp        `json:"alu_op"`      // Arithmetic select
	ALUCompare bool         `json:"alu_compare"` // ALU outputs the comparison instead of arithmetic
	ImmOperand bool         `json:"imm_operand"` // Rs/Rt fields carry an immediate
	ResultSrc  ResultSource `json:"result_src"`  // Register write source
	Halt       bool         `json:"halt"`        // Warp retires after this instruction
}

// Decoder decodes instruction words into control signals.
// It is stateless; decoding the same word always gives the same result.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 16-bit instruction word. Unknown opcodes decode to a
// no-op with every enable deasserted.
func (d *Decoder) Decode(word uint16) Instruction {
	inst := Instruction{
		Word: word,
		Op:   Op((word >> 12) & 0xF), // bits [15:12]
		Rd:   uint8((word >> 8) & 0xF),
		Rs:   uint8((word >> 4) & 0xF),
		Rt:   uint8(word & 0xF),
		Imm:  uint8(word & 0xFF),
		Cond: NZP((word >> 9) & 0x7), // bits [11:9]
	}

	switch inst.Op {
	case OpNOP:
		inst.Format = FormatNop
	case OpBRnzp:
		inst.Format = FormatBranch
		inst.PCSelect = true
		inst.ImmOperand = true
	case OpCMP:
		inst.Format = FormatCompare
		inst.ALUCompare = true
		inst.FlagsWrite = true
	case OpADD, OpSUB, OpMUL, OpDIV:
		inst.Format = FormatArith
		inst.RegWrite = true
		inst.ResultSrc = ResultALU
		inst.ALUOp = ALUOp(inst.Op - OpADD)
	case OpLDR:
		inst.Format = FormatLoad
		inst.RegWrite = true
		inst.MemRead = true
		inst.ResultSrc = ResultLSU
	case OpSTR:
		inst.Format = FormatStore
		inst.MemWrite = true
	case OpCONST:
		inst.Format = FormatConst
		inst.RegWrite = true
		inst.ImmOperand = true
		inst.ResultSrc = ResultImmediate
	case OpRET:
		inst.Format = FormatHalt
		inst.Halt = true
	default:
		inst.Format = FormatUnknown
	}

	return inst
}

// IsMemoryOp returns true if the instruction accesses the data store.
func (i Instruction) IsMemoryOp() bool {
	return i.MemRead || i.MemWrite
}
