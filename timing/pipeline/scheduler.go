package pipeline

import "github.com/sarchlab/simtsim/insts"

// Statistics holds scheduler performance counters.
type Statistics struct {
	// Cycles is the number of cycles spent outside Idle and Done.
	Cycles uint64
	// Instructions is the number of warp instructions retired.
	Instructions uint64
	// FetchStalls is the number of cycles spent waiting in Fetch.
	FetchStalls uint64
	// MemStalls is the number of cycles spent waiting in Wait.
	MemStalls uint64
	// WarpSwitches is the number of times the scheduler changed warps.
	WarpSwitches uint64
}

// CPI returns the cycles per warp instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// SchedulerInput holds the signals the scheduler samples each cycle.
type SchedulerInput struct {
	// FetchReady is the current warp's fetch unit Ready signal.
	FetchReady bool
	// MemBusy is true while any active lane of the current warp has an
	// outstanding memory request.
	MemBusy bool
	// Flags is the compare result of the warp's first active lane.
	Flags insts.NZP
}

// SchedulerOption is a functional option for configuring the Scheduler.
type SchedulerOption func(*Scheduler)

// WithWarpSwitchStall lets the scheduler switch to another warp after the
// current one stalled in Fetch for more than cycles cycles. 0 disables it.
func WithWarpSwitchStall(cycles int) SchedulerOption {
	return func(s *Scheduler) {
		s.switchStall = cycles
	}
}

// Scheduler drives one core's warps through the pipeline stages, one
// instruction of one warp at a time. Warps retire instructions in program
// order and are never switched mid-instruction.
type Scheduler struct {
	stage   Stage
	warps   []*Warp
	current int
	stall   int
	inst    insts.Instruction

	decoder     *insts.Decoder
	switchStall int

	stats Statistics
}

// NewScheduler creates a scheduler for numWarps warps of lanesPerWarp lanes.
func NewScheduler(numWarps, lanesPerWarp int, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		decoder: insts.NewDecoder(),
	}
	for i := 0; i < numWarps; i++ {
		s.warps = append(s.warps, NewWarp(i, i*lanesPerWarp, lanesPerWarp))
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Stage returns the current stage.
func (s *Scheduler) Stage() Stage {
	return s.stage
}

// Warps returns the scheduler's warps.
func (s *Scheduler) Warps() []*Warp {
	return s.warps
}

// Current returns the warp being driven.
func (s *Scheduler) Current() *Warp {
	return s.warps[s.current]
}

// Instruction returns the instruction most recently decoded.
func (s *Scheduler) Instruction() insts.Instruction {
	return s.inst
}

// Stats returns the scheduler counters.
func (s *Scheduler) Stats() Statistics {
	return s.stats
}

// Start binds a block: mask holds the active flag of every core lane. The
// scheduler moves to Fetch on the first warp with an active lane, or
// straight to Done if there is none.
func (s *Scheduler) Start(mask []bool) {
	for _, w := range s.warps {
		w.Bind(mask[w.FirstLane : w.FirstLane+w.NumLanes])
	}

	s.stall = 0
	s.inst = insts.Instruction{}
	s.current = 0
	if next, ok := s.nextRunnable(len(s.warps) - 1); ok {
		s.current = next
		s.stage = StageFetch
	} else {
		s.stage = StageDone
	}
}

// Advance moves to the next stage given the signals sampled at the start of
// the cycle.
func (s *Scheduler) Advance(in SchedulerInput) {
	if s.stage != StageIdle && s.stage != StageDone {
		s.stats.Cycles++
	}

	switch s.stage {
	case StageFetch:
		s.fetch(in)
	case StageDecode:
		s.inst = s.decoder.Decode(s.Current().Fetch.Instruction())
		s.stage = StageRequest
	case StageRequest:
		s.stage = StageWait
	case StageWait:
		if in.MemBusy {
			s.stats.MemStalls++
			return
		}
		s.stage = StageExecute
	case StageExecute:
		s.stage = StageUpdate
	case StageUpdate:
		s.retire(in)
	}
}

func (s *Scheduler) fetch(in SchedulerInput) {
	if in.FetchReady {
		s.stall = 0
		s.stage = StageDecode
		return
	}

	s.stats.FetchStalls++
	s.stall++
	if s.switchStall == 0 || s.stall <= s.switchStall {
		return
	}

	if next, ok := s.nextRunnable(s.current); ok && next != s.current {
		s.current = next
		s.stats.WarpSwitches++
	}
	s.stall = 0
}

func (s *Scheduler) retire(in SchedulerInput) {
	w := s.Current()
	w.Branch.Retire(s.inst, in.Flags)
	s.stats.Instructions++

	if !s.inst.Halt {
		s.stage = StageFetch
		return
	}

	w.done = true
	next, ok := s.nextRunnable(s.current)
	if !ok {
		s.stage = StageDone
		return
	}
	s.current = next
	s.stats.WarpSwitches++
	s.stage = StageFetch
}

// nextRunnable returns the first warp after from, in round-robin order,
// that has not finished. from itself is checked last.
func (s *Scheduler) nextRunnable(from int) (int, bool) {
	n := len(s.warps)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if !s.warps[idx].done {
			return idx, true
		}
	}
	return 0, false
}

// Done reports whether every warp of the block has finished.
func (s *Scheduler) Done() bool {
	return s.stage == StageDone
}

// Reset returns the scheduler and all of its warps to Idle. Counters are
// kept.
func (s *Scheduler) Reset() {
	s.stage = StageIdle
	s.current = 0
	s.stall = 0
	s.inst = insts.Instruction{}
	for _, w := range s.warps {
		w.Reset()
	}
}

// ResetStats clears the counters.
func (s *Scheduler) ResetStats() {
	s.stats = Statistics{}
}
