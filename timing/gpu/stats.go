package gpu

// Statistics holds device-wide performance counters.
type Statistics struct {
	LaunchID string `json:"launch_id"`

	// Cycles is the number of device cycles since Start.
	Cycles uint64 `json:"cycles"`
	// Instructions is the number of warp instructions retired.
	Instructions uint64 `json:"instructions"`
	// ActiveCoreCycles sums the cycles each core spent running a block.
	ActiveCoreCycles uint64 `json:"active_core_cycles"`
	// FetchStalls is the number of core-cycles spent waiting in Fetch.
	FetchStalls uint64 `json:"fetch_stalls"`
	// MemStalls is the number of core-cycles spent waiting in Wait.
	MemStalls uint64 `json:"mem_stalls"`
	// WarpSwitches is the number of warp changes across all cores.
	WarpSwitches uint64 `json:"warp_switches"`

	ProgramReads uint64 `json:"program_reads"`
	DataReads    uint64 `json:"data_reads"`
	DataWrites   uint64 `json:"data_writes"`

	// DataQueueCycles counts requester-cycles spent waiting for a data
	// channel.
	DataQueueCycles uint64 `json:"data_queue_cycles"`

	// Seconds is the simulated time at the configured clock.
	Seconds float64 `json:"seconds"`
}

// CPI returns device cycles per warp instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Stats returns the counters of the current launch.
func (g *GPU) Stats() Statistics {
	s := Statistics{
		Cycles:  g.cycles,
		Seconds: g.cfg.SimulatedSeconds(g.cycles),
	}
	if !g.launchID.IsNil() {
		s.LaunchID = g.launchID.String()
	}

	for _, c := range g.cores {
		cs := c.Stats()
		s.Instructions += cs.Instructions
		s.ActiveCoreCycles += cs.Cycles
		s.FetchStalls += cs.FetchStalls
		s.MemStalls += cs.MemStalls
		s.WarpSwitches += cs.WarpSwitches
	}

	prog := g.programCtrl.Stats()
	data := g.dataCtrl.Stats()
	s.ProgramReads = prog.Reads
	s.DataReads = data.Reads
	s.DataWrites = data.Writes
	s.DataQueueCycles = data.WaitingRequesterCycles

	return s
}
