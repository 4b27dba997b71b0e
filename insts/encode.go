package insts

func encodeRRR(op Op, rd, rs, rt uint8) uint16 {
	return uint16(op)<<12 | uint16(rd&0xF)<<8 | uint16(rs&0xF)<<4 | uint16(rt&0xF)
}

// EncodeNOP encodes NOP.
func EncodeNOP() uint16 { return 0 }

// EncodeBR encodes BRnzp: branch to target if the stored flags share a bit
// with cond.
func EncodeBR(cond NZP, target uint8) uint16 {
	return uint16(OpBRnzp)<<12 | uint16(cond&0x7)<<9 | uint16(target)
}

// EncodeCMP encodes CMP Rs, Rt.
func EncodeCMP(rs, rt uint8) uint16 { return encodeRRR(OpCMP, 0, rs, rt) }

// EncodeADD encodes ADD Rd, Rs, Rt.
func EncodeADD(rd, rs, rt uint8) uint16 { return encodeRRR(OpADD, rd, rs, rt) }

// EncodeSUB encodes SUB Rd, Rs, Rt.
func EncodeSUB(rd, rs, rt uint8) uint16 { return encodeRRR(OpSUB, rd, rs, rt) }

// EncodeMUL encodes MUL Rd, Rs, Rt.
func EncodeMUL(rd, rs, rt uint8) uint16 { return encodeRRR(OpMUL, rd, rs, rt) }

// EncodeDIV encodes DIV Rd, Rs, Rt.
func EncodeDIV(rd, rs, rt uint8) uint16 { return encodeRRR(OpDIV, rd, rs, rt) }

// EncodeLDR encodes LDR Rd, Rs (Rd = mem[Rs]).
func EncodeLDR(rd, rs uint8) uint16 { return encodeRRR(OpLDR, rd, rs, 0) }

// EncodeSTR encodes STR Rs, Rt (mem[Rs] = Rt).
func EncodeSTR(rs, rt uint8) uint16 { return encodeRRR(OpSTR, 0, rs, rt) }

// EncodeCONST encodes CONST Rd, #imm.
func EncodeCONST(rd, imm uint8) uint16 {
	return uint16(OpCONST)<<12 | uint16(rd&0xF)<<8 | uint16(imm)
}

// EncodeRET encodes RET.
func EncodeRET() uint16 { return uint16(OpRET) << 12 }
