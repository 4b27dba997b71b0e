package pipeline

import "github.com/sarchlab/simtsim/emu"

// Warp is a group of consecutive lanes sharing one program counter and
// instruction stream.
type Warp struct {
	// ID is the warp's index within its core.
	ID int

	// FirstLane is the core lane index of the warp's first lane.
	FirstLane int

	// NumLanes is the number of lanes in the warp.
	NumLanes int

	// Branch holds the warp's PC and NZP flags.
	Branch *emu.BranchUnit

	// Fetch reads the warp's instructions.
	Fetch *FetchUnit

	active []bool
	done   bool
}

// NewWarp creates a warp over lanes [firstLane, firstLane+numLanes).
func NewWarp(id, firstLane, numLanes int) *Warp {
	return &Warp{
		ID:        id,
		FirstLane: firstLane,
		NumLanes:  numLanes,
		Branch:    emu.NewBranchUnit(),
		Fetch:     NewFetchUnit(),
		active:    make([]bool, numLanes),
	}
}

// Bind starts the warp on a new block. active holds the mask of the warp's
// own lanes. A warp with no active lane is done immediately.
func (w *Warp) Bind(active []bool) {
	w.Branch.Reset()
	w.Fetch.Reset()
	copy(w.active, active)
	w.done = w.ActiveCount() == 0
}

// Active reports whether the core lane is an active lane of this warp.
func (w *Warp) Active(lane int) bool {
	i := lane - w.FirstLane
	return i >= 0 && i < w.NumLanes && w.active[i]
}

// ActiveCount returns the number of active lanes.
func (w *Warp) ActiveCount() int {
	n := 0
	for _, a := range w.active {
		if a {
			n++
		}
	}
	return n
}

// FirstActiveLane returns the core lane index of the first active lane, or
// -1 if none is active.
func (w *Warp) FirstActiveLane() int {
	for i, a := range w.active {
		if a {
			return w.FirstLane + i
		}
	}
	return -1
}

// Done reports whether the warp has executed RET.
func (w *Warp) Done() bool {
	return w.done
}

// Reset clears the warp's PC, flags, fetch unit and mask.
func (w *Warp) Reset() {
	w.Branch.Reset()
	w.Fetch.Reset()
	for i := range w.active {
		w.active[i] = false
	}
	w.done = false
}
