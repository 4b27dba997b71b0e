package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// AsmError reports a problem on a specific source line.
type AsmError struct {
	Line int
	Msg  string
}

func (e *AsmError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type asmLine struct {
	num      int
	mnemonic string
	operands []string
}

// Assemble translates assembly source into instruction words.
//
// Syntax follows Disassemble: one instruction per line, ';' starts a
// comment, "LABEL:" defines a branch target, immediates are written as
// "#n" and BR takes an n/z/p suffix (BRn, BRnz, BRnzp).
func Assemble(source string) ([]uint16, error) {
	labels := make(map[string]uint8)
	var lines []asmLine

	// Pass 1: strip comments, collect labels.
	for i, raw := range strings.Split(source, "\n") {
		text := raw
		if idx := strings.IndexByte(text, ';'); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)

		for {
			idx := strings.IndexByte(text, ':')
			if idx < 0 {
				break
			}
			label := strings.TrimSpace(text[:idx])
			if label == "" || strings.ContainsAny(label, " \t,#%") {
				return nil, &AsmError{Line: i + 1, Msg: fmt.Sprintf("invalid label %q", label)}
			}
			if _, dup := labels[label]; dup {
				return nil, &AsmError{Line: i + 1, Msg: fmt.Sprintf("duplicate label %q", label)}
			}
			if len(lines) >= AddrSpace {
				return nil, &AsmError{Line: i + 1, Msg: "program exceeds address space"}
			}
			labels[label] = uint8(len(lines))
			text = strings.TrimSpace(text[idx+1:])
		}

		if text == "" {
			continue
		}
		if len(lines) >= AddrSpace {
			return nil, &AsmError{Line: i + 1, Msg: "program exceeds address space"}
		}

		fields := strings.Fields(text)
		line := asmLine{num: i + 1, mnemonic: fields[0]}
		rest := strings.TrimSpace(text[len(fields[0]):])
		if rest != "" {
			for _, op := range strings.Split(rest, ",") {
				line.operands = append(line.operands, strings.TrimSpace(op))
			}
		}
		lines = append(lines, line)
	}

	// Pass 2: encode.
	words := make([]uint16, 0, len(lines))
	for _, line := range lines {
		word, err := encodeLine(line, labels)
		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}

	return words, nil
}

func encodeLine(line asmLine, labels map[string]uint8) (uint16, error) {
	fail := func(format string, args ...interface{}) (uint16, error) {
		return 0, &AsmError{Line: line.num, Msg: fmt.Sprintf(format, args...)}
	}

	mnemonic := strings.ToUpper(line.mnemonic)
	if strings.HasPrefix(mnemonic, "BR") {
		cond, ok := parseCond(mnemonic[2:])
		if !ok {
			return fail("invalid branch condition %q", line.mnemonic)
		}
		if len(line.operands) != 1 {
			return fail("BR expects 1 operand, got %d", len(line.operands))
		}
		target, err := parseTarget(line.operands[0], labels)
		if err != nil {
			return fail("%v", err)
		}
		return EncodeBR(cond, target), nil
	}

	regs, err := parseOperands(mnemonic, line.operands)
	if err != nil {
		return fail("%v", err)
	}

	switch mnemonic {
	case "NOP":
		return EncodeNOP(), nil
	case "RET":
		return EncodeRET(), nil
	case "CMP":
		return EncodeCMP(regs[0], regs[1]), nil
	case "ADD":
		return EncodeADD(regs[0], regs[1], regs[2]), nil
	case "SUB":
		return EncodeSUB(regs[0], regs[1], regs[2]), nil
	case "MUL":
		return EncodeMUL(regs[0], regs[1], regs[2]), nil
	case "DIV":
		return EncodeDIV(regs[0], regs[1], regs[2]), nil
	case "LDR":
		return EncodeLDR(regs[0], regs[1]), nil
	case "STR":
		return EncodeSTR(regs[0], regs[1]), nil
	case "CONST":
		imm, err := parseImmediate(line.operands[1])
		if err != nil {
			return fail("%v", err)
		}
		return EncodeCONST(regs[0], imm), nil
	}

	return fail("unknown mnemonic %q", line.mnemonic)
}

// operandCounts lists how many operands each non-branch mnemonic takes and
// how many of the leading ones are registers.
var operandCounts = map[string][2]int{
	"NOP":   {0, 0},
	"RET":   {0, 0},
	"CMP":   {2, 2},
	"ADD":   {3, 3},
	"SUB":   {3, 3},
	"MUL":   {3, 3},
	"DIV":   {3, 3},
	"LDR":   {2, 2},
	"STR":   {2, 2},
	"CONST": {2, 1},
}

func parseOperands(mnemonic string, operands []string) ([]uint8, error) {
	counts, ok := operandCounts[mnemonic]
	if !ok {
		return nil, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}
	if len(operands) != counts[0] {
		return nil, fmt.Errorf("%s expects %d operands, got %d", mnemonic, counts[0], len(operands))
	}

	regs := make([]uint8, counts[1])
	for i := 0; i < counts[1]; i++ {
		reg, err := parseRegister(operands[i])
		if err != nil {
			return nil, err
		}
		regs[i] = reg
	}
	return regs, nil
}

func parseRegister(s string) (uint8, error) {
	switch strings.ToLower(s) {
	case "%blockidx":
		return RegBlockIdx, nil
	case "%blockdim":
		return RegBlockDim, nil
	case "%threadidx":
		return RegThreadIdx, nil
	}

	if len(s) < 2 || (s[0] != 'R' && s[0] != 'r') {
		return 0, fmt.Errorf("invalid register %q", s)
	}
	n, err := strconv.ParseUint(s[1:], 10, 8)
	if err != nil || n >= NumRegs {
		return 0, fmt.Errorf("invalid register %q", s)
	}
	return uint8(n), nil
}

func parseImmediate(s string) (uint8, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q", s)
	}
	return uint8(n), nil
}

func parseTarget(s string, labels map[string]uint8) (uint8, error) {
	if addr, ok := labels[s]; ok {
		return addr, nil
	}
	return parseImmediate(s)
}

func parseCond(suffix string) (NZP, bool) {
	var cond NZP
	for _, c := range suffix {
		switch c {
		case 'N':
			cond |= NZPNegative
		case 'Z':
			cond |= NZPZero
		case 'P':
			cond |= NZPPositive
		default:
			return 0, false
		}
	}
	return cond, true
}
