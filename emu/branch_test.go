package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/insts"
)

var _ = Describe("BranchUnit", func() {
	var (
		branch  *emu.BranchUnit
		decoder *insts.Decoder
	)

	BeforeEach(func() {
		branch = emu.NewBranchUnit()
		decoder = insts.NewDecoder()
	})

	It("should advance by one for non-branch instructions", func() {
		for _, word := range []uint16{
			insts.EncodeNOP(),
			insts.EncodeADD(1, 2, 3),
			insts.EncodeLDR(1, 2),
			insts.EncodeSTR(1, 2),
			insts.EncodeCONST(1, 200),
			insts.EncodeCMP(1, 2),
			0xA000,
		} {
			branch.PC = 7
			branch.Retire(decoder.Decode(word), insts.NZPZero)
			Expect(branch.PC).To(Equal(uint8(8)))
		}
	})

	It("should take the branch when the condition matches the flags", func() {
		branch.Flags = insts.NZPPositive
		branch.PC = 3

		branch.Retire(decoder.Decode(insts.EncodeBR(insts.NZPPositive, 20)), 0)

		Expect(branch.PC).To(Equal(uint8(20)))
	})

	It("should fall through when the condition does not match", func() {
		branch.Flags = insts.NZPPositive
		branch.PC = 3

		branch.Retire(decoder.Decode(insts.EncodeBR(insts.NZPNegative, 20)), 0)

		Expect(branch.PC).To(Equal(uint8(4)))
	})

	It("should branch on any shared bit", func() {
		for flags := insts.NZP(1); flags <= 0b111; flags++ {
			for cond := insts.NZP(0); cond <= 0b111; cond++ {
				branch.Flags = flags
				branch.PC = 0
				branch.Retire(decoder.Decode(insts.EncodeBR(cond, 9)), 0)

				if flags&cond != 0 {
					Expect(branch.PC).To(Equal(uint8(9)))
				} else {
					Expect(branch.PC).To(Equal(uint8(1)))
				}
			}
		}
	})

	It("should latch flags only on flag-writing instructions", func() {
		branch.Retire(decoder.Decode(insts.EncodeCMP(0, 1)), insts.NZPNegative)
		Expect(branch.Flags).To(Equal(insts.NZPNegative))

		branch.Retire(decoder.Decode(insts.EncodeADD(0, 1, 2)), insts.NZPZero)
		Expect(branch.Flags).To(Equal(insts.NZPNegative))
	})

	It("should reset PC and flags", func() {
		branch.PC = 10
		branch.Flags = insts.NZPZero

		branch.Reset()

		Expect(branch.PC).To(Equal(uint8(0)))
		Expect(branch.Flags).To(Equal(insts.NZP(0)))
	})
})
