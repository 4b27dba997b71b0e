package trace_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simtsim/insts"
	"github.com/sarchlab/simtsim/timing/config"
	"github.com/sarchlab/simtsim/timing/gpu"
	"github.com/sarchlab/simtsim/trace"
)

var _ = Describe("Printer", func() {
	var (
		buf *bytes.Buffer
		cfg *config.DeviceConfig
	)

	run := func(p *trace.Printer, threads int) {
		words, err := insts.Assemble(`
			CONST R1, #7
			STR %threadIdx, R1
			RET
		`)
		Expect(err).NotTo(HaveOccurred())

		g, err := gpu.NewGPU(cfg, gpu.WithTracer(p))
		Expect(err).NotTo(HaveOccurred())
		Expect(g.LoadProgram(words)).To(Succeed())
		Expect(g.SetThreadCount(threads)).To(Succeed())
		Expect(g.Start()).To(Succeed())
		Expect(g.Run()).To(Succeed())
		Expect(p.Flush()).To(Succeed())
	}

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		cfg = config.DefaultDeviceConfig()
	})

	It("should print a header for every cycle", func() {
		run(trace.NewPrinter(buf, trace.WithoutColor()), 4)

		out := buf.String()
		Expect(out).To(ContainSubstring("=== Cycle 1 ==="))
		Expect(out).To(ContainSubstring("blocks 1/1 retired [done]"))
		Expect(out).To(ContainSubstring("data channels:"))
	})

	It("should show stages, instructions and lanes", func() {
		run(trace.NewPrinter(buf, trace.WithoutColor()), 4)

		out := buf.String()
		Expect(out).To(ContainSubstring("+ core 0 block 0 FETCH"))
		Expect(out).To(ContainSubstring("CONST R1, #7"))
		Expect(out).To(ContainSubstring("lsu=REQUESTING"))
		Expect(out).To(ContainSubstring("- lane 3"))
		Expect(out).NotTo(ContainSubstring("+ core 1"))
		Expect(out).NotTo(ContainSubstring("\x1b["))
	})

	It("should print registers and masked lanes on request", func() {
		run(trace.NewPrinter(buf, trace.WithoutColor(), trace.WithRegisters()), 2)

		out := buf.String()
		Expect(out).To(ContainSubstring("%threadIdx=1"))
		Expect(out).To(ContainSubstring("- lane 3 masked"))
	})

	It("should include idle cores when asked", func() {
		run(trace.NewPrinter(buf, trace.WithoutColor(), trace.WithIdleCores()), 4)

		Expect(buf.String()).To(ContainSubstring("+ core 1 block 0 IDLE"))
	})

	It("should buffer until flushed", func() {
		p := trace.NewPrinter(buf, trace.WithoutColor())
		g, err := gpu.NewGPU(cfg, gpu.WithTracer(p))
		Expect(err).NotTo(HaveOccurred())
		Expect(g.SetThreadCount(1)).To(Succeed())
		Expect(g.Start()).To(Succeed())
		g.Tick()

		Expect(buf.Len()).To(BeZero())
		Expect(p.Flush()).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("=== Cycle 1 ==="))
	})
})
