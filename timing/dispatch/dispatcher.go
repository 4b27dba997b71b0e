// Package dispatch assigns the blocks of a launch to cores.
package dispatch

import "github.com/sarchlab/simtsim/timing/config"

// CoreSignals are the dispatcher outputs driven to one core.
type CoreSignals struct {
	Reset bool
	Start bool
	Block int
}

// Dispatcher hands out blocks to cores, lowest pending block to the lowest
// ready core, and reports when every block has retired. A core that finishes
// while blocks are pending is reset and handed the next one; otherwise it is
// left in Done.
type Dispatcher struct {
	signals []CoreSignals
	launch  *config.LaunchConfig

	started    bool
	numBlocks  int
	dispatched int
	retired    int
}

// NewDispatcher creates a dispatcher driving numCores cores.
func NewDispatcher(numCores int) *Dispatcher {
	return &Dispatcher{
		signals: make([]CoreSignals, numCores),
	}
}

// Start begins a launch. Every core is reset first and then handed a block
// while blocks remain.
func (d *Dispatcher) Start(launch *config.LaunchConfig) {
	d.launch = launch
	d.started = true
	d.numBlocks = launch.NumBlocks()
	d.dispatched = 0
	d.retired = 0
	for i := range d.signals {
		d.signals[i] = CoreSignals{Reset: true}
	}
}

// Started reports whether a launch is in progress or finished.
func (d *Dispatcher) Started() bool {
	return d.started
}

// Launch returns the current launch configuration.
func (d *Dispatcher) Launch() *config.LaunchConfig {
	return d.launch
}

// Signals returns the signals driven to core i.
func (d *Dispatcher) Signals(i int) CoreSignals {
	return d.signals[i]
}

// NumBlocks returns the number of blocks in the launch.
func (d *Dispatcher) NumBlocks() int {
	return d.numBlocks
}

// Dispatched returns the number of blocks handed out so far.
func (d *Dispatcher) Dispatched() int {
	return d.dispatched
}

// Retired returns the number of blocks that have finished.
func (d *Dispatcher) Retired() int {
	return d.retired
}

// Done reports whether every block of the launch has retired. It stays true
// until the next Reset.
func (d *Dispatcher) Done() bool {
	return d.started && d.retired == d.numBlocks
}

// Tick advances the dispatcher by one cycle. coreDone holds each core's Done
// signal sampled at the start of the cycle.
func (d *Dispatcher) Tick(coreDone []bool) {
	if !d.started || d.Done() {
		return
	}

	for i := range d.signals {
		sig := &d.signals[i]

		if sig.Reset {
			sig.Reset = false
			if d.dispatched < d.numBlocks {
				sig.Start = true
				sig.Block = d.dispatched
				d.dispatched++
			}
			continue
		}

		if sig.Start && coreDone[i] {
			sig.Start = false
			d.retired++
			if d.dispatched < d.numBlocks {
				sig.Reset = true
			}
		}
	}
}

// Reset drops the launch and every core signal.
func (d *Dispatcher) Reset() {
	for i := range d.signals {
		d.signals[i] = CoreSignals{}
	}
	d.launch = nil
	d.started = false
	d.numBlocks = 0
	d.dispatched = 0
	d.retired = 0
}
