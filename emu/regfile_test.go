package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/insts"
)

var _ = Describe("RegFile", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = emu.NewRegFile(3)
		regFile.Bind(1, 8)
	})

	It("should start with general-purpose registers cleared", func() {
		for i := uint8(0); i < insts.NumWritableRegs; i++ {
			Expect(regFile.ReadReg(i)).To(Equal(uint8(0)))
		}
	})

	It("should expose block index, block dim and thread index", func() {
		Expect(regFile.ReadReg(insts.RegBlockIdx)).To(Equal(uint8(1)))
		Expect(regFile.ReadReg(insts.RegBlockDim)).To(Equal(uint8(8)))
		Expect(regFile.ReadReg(insts.RegThreadIdx)).To(Equal(uint8(3)))
	})

	It("should store and read back every writable register", func() {
		for i := uint8(0); i < insts.NumWritableRegs; i++ {
			regFile.WriteReg(i, i+1)
		}
		for i := uint8(0); i < insts.NumWritableRegs; i++ {
			Expect(regFile.ReadReg(i)).To(Equal(i + 1))
		}
	})

	It("should ignore writes to read-only registers", func() {
		regFile.WriteReg(insts.RegBlockIdx, 99)
		regFile.WriteReg(insts.RegBlockDim, 99)
		regFile.WriteReg(insts.RegThreadIdx, 99)

		Expect(regFile.ReadReg(insts.RegBlockIdx)).To(Equal(uint8(1)))
		Expect(regFile.ReadReg(insts.RegBlockDim)).To(Equal(uint8(8)))
		Expect(regFile.ReadReg(insts.RegThreadIdx)).To(Equal(uint8(3)))
	})

	It("should follow a new block binding", func() {
		regFile.Bind(5, 16)

		Expect(regFile.ReadReg(insts.RegBlockIdx)).To(Equal(uint8(5)))
		Expect(regFile.ReadReg(insts.RegBlockDim)).To(Equal(uint8(16)))
	})

	It("should clear writable registers on reset and keep read-only values", func() {
		regFile.WriteReg(0, 42)
		regFile.WriteReg(12, 7)

		regFile.Reset()

		Expect(regFile.ReadReg(0)).To(Equal(uint8(0)))
		Expect(regFile.ReadReg(12)).To(Equal(uint8(0)))
		Expect(regFile.ReadReg(insts.RegThreadIdx)).To(Equal(uint8(3)))
	})
})
