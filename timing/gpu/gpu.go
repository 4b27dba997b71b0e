// Package gpu assembles the SIMT timing model: program and data stores,
// their memory controllers, the compute cores and the dispatcher, advanced
// together one cycle at a time.
package gpu

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/sarchlab/simtsim/emu"
	"github.com/sarchlab/simtsim/insts"
	"github.com/sarchlab/simtsim/timing/config"
	"github.com/sarchlab/simtsim/timing/core"
	"github.com/sarchlab/simtsim/timing/dispatch"
	"github.com/sarchlab/simtsim/timing/memctrl"
)

// Tracer observes the device after every cycle. Tracers must not modify the
// snapshot they are given.
type Tracer interface {
	Trace(s Snapshot)
}

// Option is a functional option for configuring the GPU.
type Option func(*GPU)

// WithTracer registers a tracer called after every cycle.
func WithTracer(t Tracer) Option {
	return func(g *GPU) {
		g.tracers = append(g.tracers, t)
	}
}

// WithMaxCycles makes Run give up after the given number of cycles.
// A value of 0 means no limit.
func WithMaxCycles(max uint64) Option {
	return func(g *GPU) {
		g.maxCycles = max
	}
}

// GPU is the simulated device.
type GPU struct {
	cfg *config.DeviceConfig

	program *emu.Memory
	data    *emu.Memory

	programStore *memctrl.Store
	dataStore    *memctrl.Store
	programCtrl  *memctrl.Controller
	dataCtrl     *memctrl.Controller

	cores      []*core.Core
	dispatcher *dispatch.Dispatcher

	launch   *config.LaunchConfig
	launchID xid.ID
	cycles   uint64

	tracers   []Tracer
	maxCycles uint64
}

// NewGPU builds a device from cfg.
func NewGPU(cfg *config.DeviceConfig, opts ...Option) (*GPU, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid device config: %w", err)
	}
	cfg = cfg.Clone()

	g := &GPU{
		cfg:        cfg,
		program:    emu.NewMemory(16),
		data:       emu.NewMemory(cfg.DataBits),
		dispatcher: dispatch.NewDispatcher(cfg.NumCores),
	}

	g.programStore = memctrl.NewStore(g.program, cfg.ProgramChannels, cfg.MemoryLatency)
	g.dataStore = memctrl.NewStore(g.data, cfg.DataChannels, cfg.MemoryLatency)
	g.programCtrl = memctrl.NewController("program",
		cfg.NumCores*cfg.WarpsPerCore(), cfg.ProgramChannels)
	g.dataCtrl = memctrl.NewController("data",
		cfg.NumCores*cfg.ThreadsPerBlock, cfg.DataChannels)

	for i := 0; i < cfg.NumCores; i++ {
		g.cores = append(g.cores, core.NewCore(i, cfg))
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// Config returns a copy of the device configuration.
func (g *GPU) Config() *config.DeviceConfig {
	return g.cfg.Clone()
}

// ProgramMemory returns the program store contents.
func (g *GPU) ProgramMemory() *emu.Memory {
	return g.program
}

// DataMemory returns the data store contents.
func (g *GPU) DataMemory() *emu.Memory {
	return g.data
}

// Cores returns the compute cores.
func (g *GPU) Cores() []*core.Core {
	return g.cores
}

// LoadProgram writes the kernel into the program store.
func (g *GPU) LoadProgram(words []uint16) error {
	if g.dispatcher.Started() {
		return fmt.Errorf("cannot load a program after start")
	}
	if len(words) > insts.AddrSpace {
		return fmt.Errorf("program has %d words, limit is %d", len(words), insts.AddrSpace)
	}
	g.program.Load(words)
	return nil
}

// LoadData writes initial values into the data store, from address 0.
func (g *GPU) LoadData(words []uint16) error {
	if g.dispatcher.Started() {
		return fmt.Errorf("cannot load data after start")
	}
	if len(words) > insts.AddrSpace {
		return fmt.Errorf("data has %d words, limit is %d", len(words), insts.AddrSpace)
	}
	g.data.Load(words)
	return nil
}

// SetThreadCount writes the launch's thread count. It must be called before
// Start.
func (g *GPU) SetThreadCount(n int) error {
	if g.dispatcher.Started() {
		return fmt.Errorf("cannot set thread count after start")
	}

	launch, err := config.NewLaunchConfig(g.cfg, n)
	if err != nil {
		return fmt.Errorf("failed to configure launch: %w", err)
	}
	g.launch = launch
	return nil
}

// Start launches the kernel.
func (g *GPU) Start() error {
	if g.dispatcher.Started() {
		return fmt.Errorf("kernel already started")
	}
	if g.launch == nil {
		return fmt.Errorf("thread count not set")
	}

	g.launchID = xid.New()
	g.dispatcher.Start(g.launch)
	return nil
}

// Started reports whether Start has been called since the last Reset.
func (g *GPU) Started() bool {
	return g.dispatcher.Started()
}

// Done reports whether every block of the launch has retired.
func (g *GPU) Done() bool {
	return g.dispatcher.Done()
}

// LaunchID returns the ID of the current launch. It is nil before Start.
func (g *GPU) LaunchID() xid.ID {
	return g.launchID
}

// Cycles returns the number of cycles simulated since Start.
func (g *GPU) Cycles() uint64 {
	return g.cycles
}

// Tick advances the device by one cycle. Every component samples the
// signals of the previous cycle before any component updates.
func (g *GPU) Tick() {
	if !g.dispatcher.Started() || g.dispatcher.Done() {
		return
	}

	programChanReqs := g.programCtrl.ChannelRequests()
	dataChanReqs := g.dataCtrl.ChannelRequests()
	programStoreResps := g.programStore.Responses()
	dataStoreResps := g.dataStore.Responses()
	fetchResps := g.programCtrl.Responses()
	dataResps := g.dataCtrl.Responses()

	var fetchReqs, dataReqs []memctrl.Request
	coreDone := make([]bool, len(g.cores))
	signals := make([]dispatch.CoreSignals, len(g.cores))
	for i, c := range g.cores {
		fetchReqs = append(fetchReqs, c.FetchRequests()...)
		dataReqs = append(dataReqs, c.DataRequests()...)
		coreDone[i] = c.Done()
		signals[i] = g.dispatcher.Signals(i)
	}

	g.programStore.Tick(programChanReqs)
	g.dataStore.Tick(dataChanReqs)
	g.programCtrl.Tick(fetchReqs, programStoreResps)
	g.dataCtrl.Tick(dataReqs, dataStoreResps)

	for i, c := range g.cores {
		w, l := c.NumWarps(), c.NumLanes()
		c.Tick(core.Inputs{
			Reset:  signals[i].Reset,
			Start:  signals[i].Start,
			Block:  signals[i].Block,
			Launch: g.dispatcher.Launch(),
			Fetch:  fetchResps[i*w : (i+1)*w],
			Data:   dataResps[i*l : (i+1)*l],
		})
	}

	g.dispatcher.Tick(coreDone)
	g.cycles++

	if len(g.tracers) > 0 {
		s := g.Snapshot()
		for _, t := range g.tracers {
			t.Trace(s)
		}
	}
}

// Run ticks the device until the launch is done.
func (g *GPU) Run() error {
	if !g.dispatcher.Started() {
		return fmt.Errorf("kernel not started")
	}

	for !g.Done() {
		if g.maxCycles > 0 && g.cycles >= g.maxCycles {
			return fmt.Errorf("kernel did not finish within %d cycles", g.maxCycles)
		}
		g.Tick()
	}
	return nil
}

// RunCycles ticks the device for at most cycles cycles.
// Returns true if still running, false if done.
func (g *GPU) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !g.Done(); i++ {
		g.Tick()
	}
	return !g.Done()
}

// Reset returns every component to its initial state and drops the launch.
// Program and data store contents are kept. Resetting twice is the same as
// resetting once.
func (g *GPU) Reset() {
	g.programStore.Reset()
	g.dataStore.Reset()
	g.programCtrl.Reset()
	g.dataCtrl.Reset()
	for _, c := range g.cores {
		c.Reset()
		c.ResetStats()
	}
	g.dispatcher.Reset()

	g.launch = nil
	g.launchID = xid.ID{}
	g.cycles = 0
}
