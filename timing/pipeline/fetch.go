package pipeline

import "github.com/sarchlab/simtsim/timing/memctrl"

// FetchState is the state of a FetchUnit.
type FetchState uint8

// Fetch unit states.
const (
	FetchIdle FetchState = iota
	FetchRequesting
	FetchFetched
)

func (s FetchState) String() string {
	switch s {
	case FetchIdle:
		return "IDLE"
	case FetchRequesting:
		return "FETCHING"
	case FetchFetched:
		return "FETCHED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the state by name.
func (s FetchState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FetchUnit reads a warp's next instruction from the program store.
type FetchUnit struct {
	state FetchState
	addr  uint8
	word  uint16
}

// NewFetchUnit creates an idle FetchUnit.
func NewFetchUnit() *FetchUnit {
	return &FetchUnit{}
}

// State returns the current state.
func (f *FetchUnit) State() FetchState {
	return f.state
}

// Ready reports whether a fetched instruction is waiting to be decoded.
func (f *FetchUnit) Ready() bool {
	return f.state == FetchFetched
}

// Instruction returns the most recently fetched instruction word.
func (f *FetchUnit) Instruction() uint16 {
	return f.word
}

// Request returns the program memory request driven this cycle.
func (f *FetchUnit) Request() memctrl.Request {
	if f.state != FetchRequesting {
		return memctrl.Request{}
	}
	return memctrl.Request{Valid: true, Addr: f.addr}
}

// Tick advances the unit by one cycle. selected tells whether the unit's
// warp is the one the scheduler is driving; pc is that warp's PC.
func (f *FetchUnit) Tick(stage Stage, selected bool, pc uint8, resp memctrl.Response) {
	switch f.state {
	case FetchIdle:
		if selected && stage == StageFetch {
			f.state = FetchRequesting
			f.addr = pc
		}
	case FetchRequesting:
		if resp.Ready {
			f.word = resp.Data
			f.state = FetchFetched
		}
	case FetchFetched:
		if selected && stage == StageDecode {
			f.state = FetchIdle
		}
	}
}

// Reset returns the unit to Idle and drops the latched instruction.
func (f *FetchUnit) Reset() {
	*f = FetchUnit{}
}
