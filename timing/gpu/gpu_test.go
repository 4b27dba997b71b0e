package gpu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/xid"

	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/insts"
	"github.com/sarchlab/simtsim/timing/config"
	"github.com/sarchlab/simtsim/timing/gpu"
	"github.com/sarchlab/simtsim/timing/memctrl"
	"github.com/sarchlab/simtsim/timing/pipeline"
)

type recorder struct {
	snapshots []gpu.Snapshot
}

func (r *recorder) Trace(s gpu.Snapshot) {
	r.snapshots = append(r.snapshots, s)
}

func newGPU(cfg *config.DeviceConfig, source string, data []uint16, threads int, opts ...gpu.Option) *gpu.GPU {
	words, err := insts.Assemble(source)
	Expect(err).NotTo(HaveOccurred())

	g, err := gpu.NewGPU(cfg, opts...)
	Expect(err).NotTo(HaveOccurred())
	Expect(g.LoadProgram(words)).To(Succeed())
	Expect(g.LoadData(data)).To(Succeed())
	Expect(g.SetThreadCount(threads)).To(Succeed())
	return g
}

func runToCompletion(g *gpu.GPU) {
	Expect(g.Start()).To(Succeed())
	Expect(g.Run()).To(Succeed())
	Expect(g.Done()).To(BeTrue())
}

func emulate(cfg *config.DeviceConfig, source string, data []uint16, threads int) *emu.Memory {
	words, err := insts.Assemble(source)
	Expect(err).NotTo(HaveOccurred())

	program := emu.NewMemory(16)
	program.Load(words)
	mem := emu.NewMemory(cfg.DataBits)
	mem.Load(data)

	e := emu.NewEmulator(program, mem, cfg.ThreadsPerBlock, emu.WithMaxInstructions(10000))
	Expect(e.Run(threads)).To(Succeed())
	return mem
}

var _ = Describe("GPU", func() {
	var cfg *config.DeviceConfig

	BeforeEach(func() {
		cfg = config.DefaultDeviceConfig()
		cfg.WarpSwitchStall = 0
	})

	It("should reject invalid configurations", func() {
		cfg.NumCores = 0
		_, err := gpu.NewGPU(cfg)
		Expect(err).To(MatchError(ContainSubstring("invalid device config")))
	})

	Describe("matrix addition", func() {
		It("should add across two cores", func() {
			g := newGPU(cfg, matAddSource, matAddData, 8)
			runToCompletion(g)

			Expect(g.DataMemory().Words(24)[16:]).To(Equal(
				[]uint16{0, 2, 4, 6, 8, 10, 12, 14}))
		})

		It("should add in a single block of eight threads", func() {
			cfg.ThreadsPerBlock = 8
			g := newGPU(cfg, matAddSource, matAddData, 8)
			runToCompletion(g)

			Expect(g.DataMemory().Words(24)[16:]).To(Equal(
				[]uint16{0, 2, 4, 6, 8, 10, 12, 14}))
		})

		It("should reuse a single core for every block", func() {
			cfg.NumCores = 1
			g := newGPU(cfg, matAddSource, matAddData, 8)
			runToCompletion(g)

			Expect(g.DataMemory().Words(24)[16:]).To(Equal(
				[]uint16{0, 2, 4, 6, 8, 10, 12, 14}))
		})

		It("should report statistics", func() {
			g := newGPU(cfg, matAddSource, matAddData, 8)
			runToCompletion(g)

			stats := g.Stats()
			Expect(stats.Instructions).To(Equal(uint64(26)))
			Expect(stats.ProgramReads).To(Equal(uint64(26)))
			Expect(stats.DataReads).To(Equal(uint64(16)))
			Expect(stats.DataWrites).To(Equal(uint64(8)))
			Expect(stats.Cycles).To(Equal(g.Cycles()))
			Expect(stats.CPI()).To(BeNumerically(">", 1))
			Expect(stats.Seconds).To(BeNumerically(">", 0))

			id, err := xid.FromString(stats.LaunchID)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(g.LaunchID()))
		})

		It("should take longer with slower memory", func() {
			fast := newGPU(cfg, matAddSource, matAddData, 8)
			runToCompletion(fast)

			cfg.MemoryLatency = 4
			slow := newGPU(cfg, matAddSource, matAddData, 8)
			runToCompletion(slow)

			Expect(slow.DataMemory().Words(24)).To(Equal(fast.DataMemory().Words(24)))
			Expect(slow.Cycles()).To(BeNumerically(">", fast.Cycles()))
		})

		It("should queue lanes on a single data channel", func() {
			cfg.DataChannels = 1
			g := newGPU(cfg, matAddSource, matAddData, 8)
			runToCompletion(g)

			Expect(g.DataMemory().Words(24)[16:]).To(Equal(
				[]uint16{0, 2, 4, 6, 8, 10, 12, 14}))
			Expect(g.Stats().DataQueueCycles).To(BeNumerically(">", 0))
		})
	})

	It("should multiply 2x2 matrices", func() {
		g := newGPU(cfg, matMulSource, matMulData, 4)
		runToCompletion(g)

		Expect(g.DataMemory().Words(12)[8:]).To(Equal([]uint16{7, 10, 15, 22}))
	})

	It("should read back stored values", func() {
		g := newGPU(cfg, roundTripSource, nil, 8)
		runToCompletion(g)

		words := g.DataMemory().Words(56)
		for i := 0; i < 8; i++ {
			Expect(words[32+i]).To(Equal(uint16(100 + i)))
			Expect(words[48+i]).To(Equal(uint16(100 + i)))
		}
	})

	Describe("masking", func() {
		It("should keep lanes past the thread count idle", func() {
			cfg.ThreadsPerBlock = 8
			cfg.DataChannels = 2
			rec := &recorder{}
			g := newGPU(cfg, matAddSource, matAddData, 5, gpu.WithTracer(rec))
			runToCompletion(g)

			Expect(rec.snapshots).NotTo(BeEmpty())
			for _, s := range rec.snapshots {
				lanes := s.Cores[0].Lanes
				for _, lane := range lanes[5:] {
					Expect(lane.Active).To(BeFalse())
					Expect(lane.LSUState).To(Equal(pipeline.LSUIdle))
					Expect(lane.Regs[:insts.NumWritableRegs]).To(HaveEach(BeZero()))
				}
			}

			Expect(g.DataMemory().Words(24)[16:]).To(Equal(
				[]uint16{0, 2, 4, 6, 8, 0, 0, 0}))
			Expect(g.DataMemory().WrittenAddrs()).To(Equal([]uint8{16, 17, 18, 19, 20}))
			Expect(g.Stats().DataReads).To(Equal(uint64(10)))
		})

		It("should finish an empty launch without running", func() {
			g := newGPU(cfg, matAddSource, matAddData, 0)
			Expect(g.Start()).To(Succeed())

			Expect(g.Done()).To(BeTrue())
			Expect(g.Run()).To(Succeed())
			Expect(g.Cycles()).To(BeZero())
		})
	})

	Describe("several warps per core", func() {
		BeforeEach(func() {
			cfg.ThreadsPerBlock = 8
			cfg.WarpSize = 2
		})

		It("should produce the same results", func() {
			g := newGPU(cfg, matAddSource, matAddData, 8)
			runToCompletion(g)

			Expect(g.DataMemory().Words(24)[16:]).To(Equal(
				[]uint16{0, 2, 4, 6, 8, 10, 12, 14}))
			Expect(g.Stats().Instructions).To(Equal(uint64(4 * 13)))
		})

		It("should switch warps while fetches are outstanding", func() {
			cfg.WarpSwitchStall = 1
			cfg.MemoryLatency = 4
			cfg.ProgramChannels = 2
			g := newGPU(cfg, matMulSource, matMulData, 4)
			runToCompletion(g)

			Expect(g.DataMemory().Words(12)[8:]).To(Equal([]uint16{7, 10, 15, 22}))
			Expect(g.Stats().WarpSwitches).To(BeNumerically(">", 0))
		})
	})

	DescribeTable("agreement with the functional emulator",
		func(source string, data []uint16, threads int, mutate func(*config.DeviceConfig)) {
			if mutate != nil {
				mutate(cfg)
			}
			g := newGPU(cfg, source, data, threads)
			runToCompletion(g)

			want := emulate(cfg, source, data, threads)
			Expect(g.DataMemory().Words(insts.AddrSpace)).To(Equal(want.Words(insts.AddrSpace)))
		},
		Entry("matrix addition", matAddSource, matAddData, 8, nil),
		Entry("matrix multiplication", matMulSource, matMulData, 4, nil),
		Entry("partial launch", matAddSource, matAddData, 6, nil),
		Entry("round trip on eight-lane cores", roundTripSource, nil, 16,
			func(c *config.DeviceConfig) { c.ThreadsPerBlock = 8 }),
		Entry("four-bit data words", matAddSource, matAddData, 8,
			func(c *config.DeviceConfig) { c.DataBits = 4 }),
	)

	Describe("launch control", func() {
		var g *gpu.GPU

		BeforeEach(func() {
			g = newGPU(cfg, matAddSource, matAddData, 8)
		})

		It("should refuse to start twice", func() {
			Expect(g.Start()).To(Succeed())
			Expect(g.Start()).To(MatchError(ContainSubstring("already started")))
		})

		It("should refuse launch writes after start", func() {
			Expect(g.Start()).To(Succeed())

			Expect(g.SetThreadCount(4)).To(HaveOccurred())
			Expect(g.LoadProgram([]uint16{0})).To(HaveOccurred())
			Expect(g.LoadData([]uint16{0})).To(HaveOccurred())
		})

		It("should require a thread count", func() {
			g.Reset()
			Expect(g.Start()).To(MatchError(ContainSubstring("thread count not set")))
		})

		It("should reject oversized launches", func() {
			Expect(g.SetThreadCount(-1)).To(HaveOccurred())
			Expect(g.SetThreadCount(256*4 + 1)).To(HaveOccurred())
		})

		It("should not run before start", func() {
			Expect(g.Run()).To(MatchError(ContainSubstring("not started")))
			Expect(g.RunCycles(10)).To(BeTrue())
			Expect(g.Cycles()).To(BeZero())
		})

		It("should run a bounded number of cycles", func() {
			Expect(g.Start()).To(Succeed())

			Expect(g.RunCycles(5)).To(BeTrue())
			Expect(g.Cycles()).To(Equal(uint64(5)))

			Expect(g.RunCycles(100000)).To(BeFalse())
			Expect(g.Done()).To(BeTrue())
		})

		It("should give up on kernels that never finish", func() {
			g = newGPU(cfg, spinSource, nil, 1, gpu.WithMaxCycles(500))
			Expect(g.Start()).To(Succeed())

			Expect(g.Run()).To(MatchError(ContainSubstring("500 cycles")))
		})
	})

	Describe("reset", func() {
		It("should be idempotent", func() {
			g := newGPU(cfg, matAddSource, matAddData, 8)
			Expect(g.Start()).To(Succeed())
			g.RunCycles(37)

			g.Reset()
			once := g.Snapshot()
			statsOnce := g.Stats()
			g.Reset()

			Expect(g.Snapshot()).To(Equal(once))
			Expect(g.Stats()).To(Equal(statsOnce))
			Expect(once.Started).To(BeFalse())
			for _, c := range once.Cores {
				Expect(c.Stage).To(Equal(pipeline.StageIdle))
			}
			for _, ch := range once.DataChannels {
				Expect(ch).To(Equal(memctrl.ChannelIdle))
			}
		})

		It("should keep memory and allow a new launch", func() {
			g := newGPU(cfg, matAddSource, matAddData, 8)
			runToCompletion(g)
			first := g.LaunchID()

			g.Reset()
			Expect(g.DataMemory().Words(24)[16:]).To(Equal(
				[]uint16{0, 2, 4, 6, 8, 10, 12, 14}))
			Expect(g.LaunchID().IsNil()).To(BeTrue())

			Expect(g.SetThreadCount(8)).To(Succeed())
			runToCompletion(g)
			Expect(g.LaunchID()).NotTo(Equal(first))
		})
	})

	It("should trace every cycle", func() {
		rec := &recorder{}
		g := newGPU(cfg, matAddSource, matAddData, 8, gpu.WithTracer(rec))
		runToCompletion(g)

		Expect(rec.snapshots).To(HaveLen(int(g.Cycles())))
		for i, s := range rec.snapshots {
			Expect(s.Cycle).To(Equal(uint64(i + 1)))
		}
		Expect(rec.snapshots[len(rec.snapshots)-1].Done).To(BeTrue())
	})
})
