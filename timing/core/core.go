// Package core provides the cycle-accurate SIMT compute core model.
// A core hosts one block at a time: a warp scheduler drives its warps through
// the pipeline while every lane keeps its own registers, ALU and LSU.
package core

import (
	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/insts"
	"github.com/sarchlab/simtsim/timing/config"
	"github.com/sarchlab/simtsim/timing/memctrl"
	"github.com/sarchlab/simtsim/timing/pipeline"
)

// Lane is one execution slot of a core. It is owned exclusively by the core.
type Lane struct {
	// Index is the lane index within the core, i.e. the thread index.
	Index int

	Regs *emu.RegFile
	ALU  *emu.ALU
	LSU  *pipeline.LSU

	// Operands read in Decode.
	RsValue uint8
	RtValue uint8

	// ALUOut is the result computed in Execute.
	ALUOut uint8
}

func newLane(index int) *Lane {
	return &Lane{
		Index: index,
		Regs:  emu.NewRegFile(uint8(index)),
		ALU:   emu.NewALU(),
		LSU:   pipeline.NewLSU(),
	}
}

func (l *Lane) reset() {
	l.Regs.Reset()
	l.LSU.Reset()
	l.RsValue = 0
	l.RtValue = 0
	l.ALUOut = 0
}

// Inputs holds the signals a core samples in one cycle.
type Inputs struct {
	// Reset forces the core back to Idle.
	Reset bool

	// Start asks an idle core to run Block of Launch.
	Start  bool
	Block  int
	Launch *config.LaunchConfig

	// Fetch holds the program memory response of every warp.
	Fetch []memctrl.Response

	// Data holds the data memory response of every lane.
	Data []memctrl.Response
}

// Core is a SIMT compute core.
type Core struct {
	id    int
	lanes []*Lane
	sched *pipeline.Scheduler
	block int
	mask  []bool
}

// NewCore creates a core sized by the device configuration.
func NewCore(id int, cfg *config.DeviceConfig) *Core {
	c := &Core{
		id: id,
		sched: pipeline.NewScheduler(
			cfg.WarpsPerCore(),
			cfg.LanesPerWarp(),
			pipeline.WithWarpSwitchStall(cfg.WarpSwitchStall),
		),
		mask: make([]bool, cfg.ThreadsPerBlock),
	}
	for i := 0; i < cfg.ThreadsPerBlock; i++ {
		c.lanes = append(c.lanes, newLane(i))
	}
	return c
}

// ID returns the core index.
func (c *Core) ID() int {
	return c.id
}

// NumLanes returns the number of lanes.
func (c *Core) NumLanes() int {
	return len(c.lanes)
}

// NumWarps returns the number of warps.
func (c *Core) NumWarps() int {
	return len(c.sched.Warps())
}

// Stage returns the scheduler stage.
func (c *Core) Stage() pipeline.Stage {
	return c.sched.Stage()
}

// Done reports whether the bound block has finished.
func (c *Core) Done() bool {
	return c.sched.Done()
}

// Block returns the index of the bound block.
func (c *Core) Block() int {
	return c.block
}

// Stats returns the core's pipeline counters.
func (c *Core) Stats() pipeline.Statistics {
	return c.sched.Stats()
}

// FetchRequests returns the program memory request of every warp.
func (c *Core) FetchRequests() []memctrl.Request {
	warps := c.sched.Warps()
	reqs := make([]memctrl.Request, len(warps))
	for i, w := range warps {
		reqs[i] = w.Fetch.Request()
	}
	return reqs
}

// DataRequests returns the data memory request of every lane.
func (c *Core) DataRequests() []memctrl.Request {
	reqs := make([]memctrl.Request, len(c.lanes))
	for i, l := range c.lanes {
		reqs[i] = l.LSU.Request()
	}
	return reqs
}

// Tick advances the core by one cycle. Every decision is taken on the state
// held at the start of the cycle and the sampled inputs.
func (c *Core) Tick(in Inputs) {
	if in.Reset {
		c.Reset()
		return
	}

	stage := c.sched.Stage()
	switch stage {
	case pipeline.StageIdle:
		if in.Start && in.Launch != nil {
			c.bind(in.Block, in.Launch)
		}
		return
	case pipeline.StageDone:
		return
	}

	warp := c.sched.Current()
	inst := c.sched.Instruction()

	schedIn := pipeline.SchedulerInput{
		FetchReady: warp.Fetch.Ready(),
		MemBusy:    c.memBusy(warp),
	}
	if first := warp.FirstActiveLane(); first >= 0 {
		schedIn.Flags = insts.NZP(c.lanes[first].ALUOut) & 0x7
	}

	for _, w := range c.sched.Warps() {
		w.Fetch.Tick(stage, w == warp, w.Branch.PC, in.Fetch[w.ID])
	}
	for _, l := range c.lanes {
		l.LSU.Tick(stage, warp.Active(l.Index), inst, l.RsValue, l.RtValue, in.Data[l.Index])
	}

	switch stage {
	case pipeline.StageExecute:
		c.execute(warp, inst)
	case pipeline.StageUpdate:
		c.commit(warp, inst)
	}

	c.sched.Advance(schedIn)

	if stage == pipeline.StageDecode {
		c.readOperands(warp, c.sched.Instruction())
	}
}

func (c *Core) bind(block int, launch *config.LaunchConfig) {
	c.block = block
	for i, l := range c.lanes {
		l.Regs.Bind(uint8(block), uint8(launch.ThreadsPerBlock))
		c.mask[i] = launch.ThreadActive(block, i)
	}
	c.sched.Start(c.mask)
}

func (c *Core) memBusy(warp *pipeline.Warp) bool {
	for _, l := range c.lanes {
		if warp.Active(l.Index) && l.LSU.Busy() {
			return true
		}
	}
	return false
}

func (c *Core) readOperands(warp *pipeline.Warp, inst insts.Instruction) {
	for _, l := range c.lanes {
		if !warp.Active(l.Index) {
			continue
		}
		l.RsValue = l.Regs.ReadReg(inst.Rs)
		l.RtValue = l.Regs.ReadReg(inst.Rt)
	}
}

func (c *Core) execute(warp *pipeline.Warp, inst insts.Instruction) {
	for _, l := range c.lanes {
		if warp.Active(l.Index) {
			l.ALUOut = l.ALU.Execute(inst, l.RsValue, l.RtValue)
		}
	}
}

func (c *Core) commit(warp *pipeline.Warp, inst insts.Instruction) {
	if !inst.RegWrite {
		return
	}

	for _, l := range c.lanes {
		if !warp.Active(l.Index) {
			continue
		}

		var value uint8
		switch inst.ResultSrc {
		case insts.ResultALU:
			value = l.ALUOut
		case insts.ResultLSU:
			value = l.LSU.Output()
		case insts.ResultImmediate:
			value = inst.Imm
		}
		l.Regs.WriteReg(inst.Rd, value)
	}
}

// Reset returns the core to Idle and clears every lane. Counters are kept.
func (c *Core) Reset() {
	c.sched.Reset()
	c.block = 0
	for i, l := range c.lanes {
		l.reset()
		c.mask[i] = false
	}
}

// ResetStats clears the core's counters.
func (c *Core) ResetStats() {
	c.sched.ResetStats()
}
