package core

import (
	"github.com/sarchlab/simtsim/insts"
	"github.com/sarchlab/simtsim/timing/pipeline"
)

// LaneState is a read-only copy of a lane's visible state.
type LaneState struct {
	Index    int                  `json:"index"`
	Active   bool                 `json:"active"`
	Regs     [insts.NumRegs]uint8 `json:"regs"`
	RsValue  uint8                `json:"rs_value"`
	RtValue  uint8                `json:"rt_value"`
	ALUOut   uint8                `json:"alu_out"`
	LSUOut   uint8                `json:"lsu_out"`
	LSUState pipeline.LSUState    `json:"lsu_state"`
}

// WarpState is a read-only copy of a warp's visible state.
type WarpState struct {
	ID          int                 `json:"id"`
	PC          uint8               `json:"pc"`
	Flags       insts.NZP           `json:"flags"`
	FetchState  pipeline.FetchState `json:"fetch_state"`
	ActiveLanes int                 `json:"active_lanes"`
	Done        bool                `json:"done"`
}

// State is a read-only copy of a core's visible state.
type State struct {
	ID          int               `json:"id"`
	Block       int               `json:"block"`
	Stage       pipeline.Stage    `json:"stage"`
	CurrentWarp int               `json:"current_warp"`
	Instruction insts.Instruction `json:"instruction"`
	Warps       []WarpState       `json:"warps"`
	Lanes       []LaneState       `json:"lanes"`
}

// Probe returns a copy of the core's visible state. Probing never changes
// the core.
func (c *Core) Probe() State {
	s := State{
		ID:          c.id,
		Block:       c.block,
		Stage:       c.sched.Stage(),
		CurrentWarp: c.sched.Current().ID,
		Instruction: c.sched.Instruction(),
	}

	for _, w := range c.sched.Warps() {
		s.Warps = append(s.Warps, WarpState{
			ID:          w.ID,
			PC:          w.Branch.PC,
			Flags:       w.Branch.Flags,
			FetchState:  w.Fetch.State(),
			ActiveLanes: w.ActiveCount(),
			Done:        w.Done(),
		})
	}

	for _, l := range c.lanes {
		ls := LaneState{
			Index:    l.Index,
			Active:   c.mask[l.Index],
			RsValue:  l.RsValue,
			RtValue:  l.RtValue,
			ALUOut:   l.ALUOut,
			LSUOut:   l.LSU.Output(),
			LSUState: l.LSU.State(),
		}
		for r := 0; r < insts.NumRegs; r++ {
			ls.Regs[r] = l.Regs.ReadReg(uint8(r))
		}
		s.Lanes = append(s.Lanes, ls)
	}

	return s
}
