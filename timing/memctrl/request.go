// Package memctrl models the memory controllers that arbitrate many
// requesters onto a fixed number of store channels, and the latency of the
// backing stores behind them.
//
// All signals are plain values exchanged once per cycle. A requester holds
// Valid high until it has observed Ready; the controller holds Ready high
// until the requester drops Valid.
package memctrl

// Request is a requester-side memory signal.
type Request struct {
	Valid bool
	Write bool
	Addr  uint8
	Data  uint16
}

// Response is the answer to a Request. Data is meaningful for reads only.
type Response struct {
	Ready bool
	Data  uint16
}

// ChannelState is the state of one controller channel.
type ChannelState uint8

// Channel states.
const (
	ChannelIdle ChannelState = iota
	ChannelReadWaiting
	ChannelWriteWaiting
	ChannelReadRelaying
	ChannelWriteRelaying
)

func (s ChannelState) String() string {
	switch s {
	case ChannelIdle:
		return "idle"
	case ChannelReadWaiting:
		return "read-waiting"
	case ChannelWriteWaiting:
		return "write-waiting"
	case ChannelReadRelaying:
		return "read-relaying"
	case ChannelWriteRelaying:
		return "write-relaying"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name.
func (s ChannelState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
