package pipeline

import (
	"github.com/sarchlab/simtsim/insts"
	"github.com/sarchlab/simtsim/timing/memctrl"
)

// LSUState is the state of a load/store unit.
type LSUState uint8

// LSU states.
const (
	LSUIdle LSUState = iota
	LSURequesting
	LSUWaiting
	LSUDone
)

func (s LSUState) String() string {
	switch s {
	case LSUIdle:
		return "IDLE"
	case LSURequesting:
		return "REQUESTING"
	case LSUWaiting:
		return "WAITING"
	case LSUDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the state by name.
func (s LSUState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LSU is a lane's load/store unit. It issues at most one data memory
// request per instruction.
type LSU struct {
	state LSUState
	write bool
	addr  uint8
	data  uint8
	out   uint8
}

// NewLSU creates an idle LSU.
func NewLSU() *LSU {
	return &LSU{}
}

// State returns the current state.
func (l *LSU) State() LSUState {
	return l.state
}

// Busy reports whether the unit has an outstanding request.
func (l *LSU) Busy() bool {
	return l.state == LSURequesting || l.state == LSUWaiting
}

// Output returns the last loaded value.
func (l *LSU) Output() uint8 {
	return l.out
}

// Request returns the data memory request driven this cycle.
func (l *LSU) Request() memctrl.Request {
	switch {
	case l.state == LSURequesting && l.write:
		return memctrl.Request{Valid: true, Write: true, Addr: l.addr, Data: uint16(l.data)}
	case l.state == LSURequesting, l.state == LSUWaiting:
		return memctrl.Request{Valid: true, Addr: l.addr}
	default:
		return memctrl.Request{}
	}
}

// Tick advances the unit by one cycle. A lane that is not active never
// leaves Idle. rs supplies the address and rt the store data.
func (l *LSU) Tick(
	stage Stage,
	active bool,
	inst insts.Instruction,
	rs, rt uint8,
	resp memctrl.Response,
) {
	switch l.state {
	case LSUIdle:
		if active && stage == StageRequest && (inst.MemRead || inst.MemWrite) {
			l.state = LSURequesting
			l.write = inst.MemWrite
			l.addr = rs
			l.data = rt
		}
	case LSURequesting:
		if !l.write {
			l.state = LSUWaiting
		} else if resp.Ready {
			l.state = LSUDone
		}
	case LSUWaiting:
		if resp.Ready {
			l.out = uint8(resp.Data)
			l.state = LSUDone
		}
	case LSUDone:
		if stage == StageUpdate {
			l.state = LSUIdle
		}
	}
}

// Reset returns the unit to Idle and clears its output.
func (l *LSU) Reset() {
	*l = LSU{}
}
