package memctrl

// Statistics holds controller performance counters.
type Statistics struct {
	Reads  uint64
	Writes uint64

	// BusyChannelCycles counts channel-cycles spent outside ChannelIdle.
	BusyChannelCycles uint64

	// WaitingRequesterCycles counts requester-cycles with Valid high and no
	// channel serving the request.
	WaitingRequesterCycles uint64
}

type channel struct {
	state     ChannelState
	requester int
	req       Request
}

// Controller arbitrates numConsumers requesters onto numChannels store
// channels. Each channel serves one request at a time; an idle channel picks
// the lowest-numbered waiting requester. A requester is never served by two
// channels at once.
type Controller struct {
	name string

	channels  []channel
	serving   []bool
	responses []Response

	stats Statistics
}

// NewController creates a Controller.
func NewController(name string, numConsumers, numChannels int) *Controller {
	c := &Controller{
		name:      name,
		channels:  make([]channel, numChannels),
		serving:   make([]bool, numConsumers),
		responses: make([]Response, numConsumers),
	}
	c.Reset()
	return c
}

// Name returns the controller name.
func (c *Controller) Name() string {
	return c.name
}

// NumConsumers returns the number of requesters.
func (c *Controller) NumConsumers() int {
	return len(c.serving)
}

// NumChannels returns the number of store channels.
func (c *Controller) NumChannels() int {
	return len(c.channels)
}

// Response returns the response currently driven to requester i.
func (c *Controller) Response(i int) Response {
	return c.responses[i]
}

// Responses returns a copy of every requester response.
func (c *Controller) Responses() []Response {
	out := make([]Response, len(c.responses))
	copy(out, c.responses)
	return out
}

// ChannelRequest returns the request currently driven to store channel i.
func (c *Controller) ChannelRequest(i int) Request {
	ch := &c.channels[i]
	switch ch.state {
	case ChannelReadWaiting, ChannelWriteWaiting:
		return ch.req
	default:
		return Request{}
	}
}

// ChannelRequests returns the requests driven to every store channel.
func (c *Controller) ChannelRequests() []Request {
	out := make([]Request, len(c.channels))
	for i := range c.channels {
		out[i] = c.ChannelRequest(i)
	}
	return out
}

// ChannelState returns the state of channel i.
func (c *Controller) ChannelState(i int) ChannelState {
	return c.channels[i].state
}

// Serving reports whether some channel currently owns requester i.
func (c *Controller) Serving(i int) bool {
	return c.serving[i]
}

// Stats returns the controller counters.
func (c *Controller) Stats() Statistics {
	return c.stats
}

// Tick advances every channel by one cycle, given the requester signals and
// the store responses sampled at the start of the cycle.
func (c *Controller) Tick(consumers []Request, store []Response) {
	for i := range c.channels {
		ch := &c.channels[i]

		switch ch.state {
		case ChannelIdle:
			c.grant(ch, consumers)

		case ChannelReadWaiting, ChannelWriteWaiting:
			if store[i].Ready {
				resp := Response{Ready: true}
				if ch.state == ChannelReadWaiting {
					resp.Data = store[i].Data
					ch.state = ChannelReadRelaying
				} else {
					ch.state = ChannelWriteRelaying
				}
				c.responses[ch.requester] = resp
			}

		case ChannelReadRelaying, ChannelWriteRelaying:
			if !consumers[ch.requester].Valid {
				c.responses[ch.requester] = Response{}
				c.serving[ch.requester] = false
				ch.state = ChannelIdle
				ch.requester = -1
			}
		}

		if ch.state != ChannelIdle {
			c.stats.BusyChannelCycles++
		}
	}

	for j, req := range consumers {
		if req.Valid && !c.serving[j] {
			c.stats.WaitingRequesterCycles++
		}
	}
}

func (c *Controller) grant(ch *channel, consumers []Request) {
	for j, req := range consumers {
		if !req.Valid || c.serving[j] {
			continue
		}

		c.serving[j] = true
		ch.requester = j
		ch.req = req
		if req.Write {
			ch.state = ChannelWriteWaiting
			c.stats.Writes++
		} else {
			ch.state = ChannelReadWaiting
			c.stats.Reads++
		}
		return
	}
}

// Reset returns every channel to idle, drops all responses, and clears the
// counters.
func (c *Controller) Reset() {
	for i := range c.channels {
		c.channels[i] = channel{state: ChannelIdle, requester: -1}
	}
	for i := range c.serving {
		c.serving[i] = false
		c.responses[i] = Response{}
	}
	c.stats = Statistics{}
}
