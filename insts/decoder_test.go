package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simtsim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Field extraction", func() {
		// MUL R0, %blockIdx, %blockDim -> 0b0101_0000_1101_1110
		It("should decode MUL R0, %blockIdx, %blockDim", func() {
			inst := decoder.Decode(0b0101000011011110)

			Expect(inst.Op).To(Equal(insts.OpMUL))
			Expect(inst.Format).To(Equal(insts.FormatArith))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rs).To(Equal(insts.RegBlockIdx))
			Expect(inst.Rt).To(Equal(insts.RegBlockDim))
			Expect(inst.ALUOp).To(Equal(insts.ALUMul))
			Expect(inst.RegWrite).To(BeTrue())
			Expect(inst.ResultSrc).To(Equal(insts.ResultALU))
		})

		// BRnz #12 -> 0b0001_110_0_0000_1100
		It("should take the branch condition from the top of Rd", func() {
			inst := decoder.Decode(0b0001110000001100)

			Expect(inst.Op).To(Equal(insts.OpBRnzp))
			Expect(inst.Cond).To(Equal(insts.NZPNegative | insts.NZPZero))
			Expect(inst.Imm).To(Equal(uint8(12)))
			Expect(inst.PCSelect).To(BeTrue())
			Expect(inst.RegWrite).To(BeFalse())
		})

		// CONST R3, #16 -> 0b1001_0011_0001_0000
		It("should take the immediate from the low byte", func() {
			inst := decoder.Decode(0b1001001100010000)

			Expect(inst.Format).To(Equal(insts.FormatConst))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(uint8(16)))
			Expect(inst.ResultSrc).To(Equal(insts.ResultImmediate))
			Expect(inst.ImmOperand).To(BeTrue())
		})

		// STR R7, R6 -> 0b1000_0000_0111_0110
		It("should decode STR address and data registers", func() {
			inst := decoder.Decode(0b1000000001110110)

			Expect(inst.Rs).To(Equal(uint8(7)))
			Expect(inst.Rt).To(Equal(uint8(6)))
			Expect(inst.MemWrite).To(BeTrue())
			Expect(inst.MemRead).To(BeFalse())
			Expect(inst.RegWrite).To(BeFalse())
			Expect(inst.IsMemoryOp()).To(BeTrue())
		})
	})

	DescribeTable("control signals per opcode",
		func(word uint16, format insts.Format, regWrite, memRead, memWrite, flagsWrite, pcSelect, halt bool) {
			inst := decoder.Decode(word)

			Expect(inst.Format).To(Equal(format))
			Expect(inst.RegWrite).To(Equal(regWrite))
			Expect(inst.MemRead).To(Equal(memRead))
			Expect(inst.MemWrite).To(Equal(memWrite))
			Expect(inst.FlagsWrite).To(Equal(flagsWrite))
			Expect(inst.PCSelect).To(Equal(pcSelect))
			Expect(inst.Halt).To(Equal(halt))
		},
		Entry("NOP", uint16(0x0000), insts.FormatNop, false, false, false, false, false, false),
		Entry("BRnzp", uint16(0x1E05), insts.FormatBranch, false, false, false, false, true, false),
		Entry("CMP", uint16(0x2012), insts.FormatCompare, false, false, false, true, false, false),
		Entry("ADD", uint16(0x3012), insts.FormatArith, true, false, false, false, false, false),
		Entry("SUB", uint16(0x4012), insts.FormatArith, true, false, false, false, false, false),
		Entry("MUL", uint16(0x5012), insts.FormatArith, true, false, false, false, false, false),
		Entry("DIV", uint16(0x6012), insts.FormatArith, true, false, false, false, false, false),
		Entry("LDR", uint16(0x7010), insts.FormatLoad, true, true, false, false, false, false),
		Entry("STR", uint16(0x8012), insts.FormatStore, false, false, true, false, false, false),
		Entry("CONST", uint16(0x9105), insts.FormatConst, true, false, false, false, false, false),
		Entry("RET", uint16(0xF000), insts.FormatHalt, false, false, false, false, false, true),
	)

	It("should map arithmetic opcodes onto ALU selects", func() {
		Expect(decoder.Decode(insts.EncodeADD(1, 2, 3)).ALUOp).To(Equal(insts.ALUAdd))
		Expect(decoder.Decode(insts.EncodeSUB(1, 2, 3)).ALUOp).To(Equal(insts.ALUSub))
		Expect(decoder.Decode(insts.EncodeMUL(1, 2, 3)).ALUOp).To(Equal(insts.ALUMul))
		Expect(decoder.Decode(insts.EncodeDIV(1, 2, 3)).ALUOp).To(Equal(insts.ALUDiv))
	})

	It("should set the compare output select only for CMP", func() {
		Expect(decoder.Decode(insts.EncodeCMP(1, 2)).ALUCompare).To(BeTrue())
		Expect(decoder.Decode(insts.EncodeSUB(1, 2, 3)).ALUCompare).To(BeFalse())
	})

	Context("unknown opcodes", func() {
		It("should decode every unassigned opcode as a no-op", func() {
			for op := uint16(0b1010); op <= 0b1110; op++ {
				inst := decoder.Decode(op<<12 | 0x0FFF)

				Expect(inst.Format).To(Equal(insts.FormatUnknown))
				Expect(inst.RegWrite).To(BeFalse())
				Expect(inst.MemRead).To(BeFalse())
				Expect(inst.MemWrite).To(BeFalse())
				Expect(inst.FlagsWrite).To(BeFalse())
				Expect(inst.PCSelect).To(BeFalse())
				Expect(inst.Halt).To(BeFalse())
			}
		})
	})

	It("should be stable for the same input", func() {
		word := insts.EncodeLDR(4, 4)
		Expect(decoder.Decode(word)).To(Equal(decoder.Decode(word)))
		Expect(insts.NewDecoder().Decode(word)).To(Equal(decoder.Decode(word)))
	})
})
