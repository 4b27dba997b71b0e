package gpu

import (
	"github.com/sarchlab/simtsim/timing/core"
	"github.com/sarchlab/simtsim/timing/memctrl"
)

// Snapshot is a read-only copy of the device state at the end of a cycle.
type Snapshot struct {
	LaunchID string `json:"launch_id"`
	Cycle    uint64 `json:"cycle"`
	Started  bool   `json:"started"`
	Done     bool   `json:"done"`

	NumBlocks  int `json:"num_blocks"`
	Dispatched int `json:"dispatched"`
	Retired    int `json:"retired"`

	Cores []core.State `json:"cores"`

	ProgramChannels []memctrl.ChannelState `json:"program_channels"`
	DataChannels    []memctrl.ChannelState `json:"data_channels"`
}

// Snapshot returns a copy of the device state.
func (g *GPU) Snapshot() Snapshot {
	s := Snapshot{
		Cycle:      g.cycles,
		Started:    g.dispatcher.Started(),
		Done:       g.dispatcher.Done(),
		NumBlocks:  g.dispatcher.NumBlocks(),
		Dispatched: g.dispatcher.Dispatched(),
		Retired:    g.dispatcher.Retired(),
	}
	if !g.launchID.IsNil() {
		s.LaunchID = g.launchID.String()
	}

	for _, c := range g.cores {
		s.Cores = append(s.Cores, c.Probe())
	}
	for i := 0; i < g.programCtrl.NumChannels(); i++ {
		s.ProgramChannels = append(s.ProgramChannels, g.programCtrl.ChannelState(i))
	}
	for i := 0; i < g.dataCtrl.NumChannels(); i++ {
		s.DataChannels = append(s.DataChannels, g.dataCtrl.ChannelState(i))
	}

	return s
}
