package memctrl

// Backing is the word storage behind a Store.
type Backing interface {
	Read(addr uint8) uint16
	Write(addr uint8, value uint16)
}

type storeChannel struct {
	countdown int
	served    bool
	resp      Response
}

// Store is an external memory with a fixed number of channels. A request
// held on a channel is performed exactly once, latency cycles after it was
// first seen; Ready then stays high until the channel request drops.
type Store struct {
	backing  Backing
	latency  int
	channels []storeChannel
}

// NewStore creates a Store with numChannels channels over backing. A
// latency below one is treated as one.
func NewStore(backing Backing, numChannels, latency int) *Store {
	if latency < 1 {
		latency = 1
	}
	return &Store{
		backing:  backing,
		latency:  latency,
		channels: make([]storeChannel, numChannels),
	}
}

// Backing returns the storage behind the store.
func (s *Store) Backing() Backing {
	return s.backing
}

// Latency returns the response latency in cycles.
func (s *Store) Latency() int {
	return s.latency
}

// Response returns the response currently driven on channel i.
func (s *Store) Response(i int) Response {
	return s.channels[i].resp
}

// Responses returns the responses driven on every channel.
func (s *Store) Responses() []Response {
	out := make([]Response, len(s.channels))
	for i := range s.channels {
		out[i] = s.channels[i].resp
	}
	return out
}

// Tick advances every channel by one cycle.
func (s *Store) Tick(reqs []Request) {
	for i := range s.channels {
		ch := &s.channels[i]
		req := reqs[i]

		if !req.Valid {
			*ch = storeChannel{}
			continue
		}
		if ch.served {
			continue
		}

		if ch.countdown == 0 {
			ch.countdown = s.latency
		}
		ch.countdown--
		if ch.countdown > 0 {
			continue
		}

		ch.served = true
		if req.Write {
			s.backing.Write(req.Addr, req.Data)
			ch.resp = Response{Ready: true}
		} else {
			ch.resp = Response{Ready: true, Data: s.backing.Read(req.Addr)}
		}
	}
}

// Reset drops every in-flight request. The backing contents are kept.
func (s *Store) Reset() {
	for i := range s.channels {
		s.channels[i] = storeChannel{}
	}
}
