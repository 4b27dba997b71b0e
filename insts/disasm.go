package insts

import (
	"fmt"
	"strings"
)

var mnemonics = map[Op]string{
	OpNOP:   "NOP",
	OpBRnzp: "BR",
	OpCMP:   "CMP",
	OpADD:   "ADD",
	OpSUB:   "SUB",
	OpMUL:   "MUL",
	OpDIV:   "DIV",
	OpLDR:   "LDR",
	OpSTR:   "STR",
	OpCONST: "CONST",
	OpRET:   "RET",
}

// String returns the assembly mnemonic of the opcode.
func (o Op) String() string {
	if m, ok := mnemonics[o]; ok {
		return m
	}
	return "UNKNOWN"
}

// String renders the condition as the BR suffix, e.g. "nz".
func (c NZP) String() string {
	var sb strings.Builder
	if c&NZPNegative != 0 {
		sb.WriteByte('n')
	}
	if c&NZPZero != 0 {
		sb.WriteByte('z')
	}
	if c&NZPPositive != 0 {
		sb.WriteByte('p')
	}
	return sb.String()
}

// RegName returns the assembly name of a register. R13-R15 use their
// special aliases.
func RegName(reg uint8) string {
	switch reg {
	case RegBlockIdx:
		return "%blockIdx"
	case RegBlockDim:
		return "%blockDim"
	case RegThreadIdx:
		return "%threadIdx"
	default:
		return fmt.Sprintf("R%d", reg)
	}
}

// String renders the instruction in assembly syntax.
func (i Instruction) String() string {
	switch i.Format {
	case FormatNop:
		return "NOP"
	case FormatBranch:
		return fmt.Sprintf("BR%s #%d", i.Cond, i.Imm)
	case FormatCompare:
		return fmt.Sprintf("CMP %s, %s", RegName(i.Rs), RegName(i.Rt))
	case FormatArith:
		return fmt.Sprintf("%s %s, %s, %s", i.Op, RegName(i.Rd), RegName(i.Rs), RegName(i.Rt))
	case FormatLoad:
		return fmt.Sprintf("LDR %s, %s", RegName(i.Rd), RegName(i.Rs))
	case FormatStore:
		return fmt.Sprintf("STR %s, %s", RegName(i.Rs), RegName(i.Rt))
	case FormatConst:
		return fmt.Sprintf("CONST %s, #%d", RegName(i.Rd), i.Imm)
	case FormatHalt:
		return "RET"
	default:
		return "UNKNOWN"
	}
}

// Disassemble decodes a word and renders it in assembly syntax.
func Disassemble(word uint16) string {
	return NewDecoder().Decode(word).String()
}
