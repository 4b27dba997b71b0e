// Package pipeline provides the per-core pipeline units of the SIMT timing
// model: the warp scheduler stage machine, the per-warp fetch unit and the
// per-lane load/store unit.
//
// Every unit is an explicit state machine with a single Tick that reads the
// signals sampled at the start of the cycle and produces the next state.
package pipeline

// Stage is a warp scheduler pipeline stage.
type Stage uint8

// Scheduler stages, in the order an instruction visits them.
const (
	StageIdle Stage = iota
	StageFetch
	StageDecode
	StageRequest
	StageWait
	StageExecute
	StageUpdate
	StageDone
)

var stageNames = [...]string{
	StageIdle:    "IDLE",
	StageFetch:   "FETCH",
	StageDecode:  "DECODE",
	StageRequest: "REQUEST",
	StageWait:    "WAIT",
	StageExecute: "EXECUTE",
	StageUpdate:  "UPDATE",
	StageDone:    "DONE",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "UNKNOWN"
}

// MarshalText renders the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
