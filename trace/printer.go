// Package trace renders per-cycle device snapshots as text.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/sarchlab/simtsim/insts"
	"github.com/sarchlab/simtsim/timing/core"
	"github.com/sarchlab/simtsim/timing/gpu"
	"github.com/sarchlab/simtsim/timing/pipeline"
)

// Option is a functional option for configuring the Printer.
type Option func(*Printer)

// WithRegisters prints the register file of every active lane.
func WithRegisters() Option {
	return func(p *Printer) {
		p.registers = true
	}
}

// WithoutColor disables ANSI colors regardless of the terminal.
func WithoutColor() Option {
	return func(p *Printer) {
		for _, c := range p.palette() {
			c.DisableColor()
		}
	}
}

// WithIdleCores also prints cores that have no block.
func WithIdleCores() Option {
	return func(p *Printer) {
		p.idleCores = true
	}
}

// Printer writes one block of text per cycle. It implements gpu.Tracer.
type Printer struct {
	w *bufio.Writer

	registers bool
	idleCores bool

	cycle  *color.Color
	stage  *color.Color
	inst   *color.Color
	busy   *color.Color
	masked *color.Color
}

// NewPrinter creates a Printer writing to w. Output is buffered until Flush.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	p := &Printer{
		w:      bufio.NewWriter(w),
		cycle:  color.New(color.FgCyan, color.Bold),
		stage:  color.New(color.FgYellow),
		inst:   color.New(color.FgGreen),
		busy:   color.New(color.FgMagenta),
		masked: color.New(color.FgHiBlack),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Printer) palette() []*color.Color {
	return []*color.Color{p.cycle, p.stage, p.inst, p.busy, p.masked}
}

// Trace prints one snapshot.
func (p *Printer) Trace(s gpu.Snapshot) {
	_, _ = p.cycle.Fprintf(p.w, "=== Cycle %d ===", s.Cycle)
	_, _ = fmt.Fprintf(p.w, " blocks %d/%d retired", s.Retired, s.NumBlocks)
	if s.Done {
		_, _ = fmt.Fprint(p.w, " [done]")
	}
	_, _ = fmt.Fprintln(p.w)

	for _, c := range s.Cores {
		if c.Stage == pipeline.StageIdle && !p.idleCores {
			continue
		}
		p.printCore(c)
	}

	_, _ = fmt.Fprintf(p.w, "  program channels: %s\n", joinStates(s.ProgramChannels))
	_, _ = fmt.Fprintf(p.w, "  data channels:    %s\n", joinStates(s.DataChannels))
}

func (p *Printer) printCore(c core.State) {
	_, _ = fmt.Fprintf(p.w, "+ core %d block %d ", c.ID, c.Block)
	_, _ = p.stage.Fprintf(p.w, "%-7s", c.Stage)

	if c.CurrentWarp < len(c.Warps) {
		w := c.Warps[c.CurrentWarp]
		_, _ = fmt.Fprintf(p.w, " warp %d pc %3d nzp %03b fetch %s ",
			w.ID, w.PC, uint8(w.Flags), w.FetchState)
	}
	_, _ = p.inst.Fprintf(p.w, "%s", c.Instruction)
	_, _ = fmt.Fprintln(p.w)

	for _, l := range c.Lanes {
		if !l.Active {
			if p.registers {
				_, _ = p.masked.Fprintf(p.w, "  - lane %d masked\n", l.Index)
			}
			continue
		}
		p.printLane(l)
	}
}

func (p *Printer) printLane(l core.LaneState) {
	_, _ = fmt.Fprintf(p.w, "  - lane %d rs=%3d rt=%3d alu=%3d ",
		l.Index, l.RsValue, l.RtValue, l.ALUOut)
	if l.LSUState != pipeline.LSUIdle {
		_, _ = p.busy.Fprintf(p.w, "lsu=%s", l.LSUState)
	} else {
		_, _ = fmt.Fprintf(p.w, "lsu=%s", l.LSUState)
	}
	_, _ = fmt.Fprintf(p.w, " out=%d\n", l.LSUOut)

	if p.registers {
		_, _ = fmt.Fprintf(p.w, "    %s\n", formatRegs(l.Regs))
	}
}

func formatRegs(regs [insts.NumRegs]uint8) string {
	parts := make([]string, 0, insts.NumRegs)
	for i, v := range regs {
		parts = append(parts, fmt.Sprintf("%s=%d", insts.RegName(uint8(i)), v))
	}
	return strings.Join(parts, " ")
}

func joinStates[S fmt.Stringer](states []S) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}

// Flush writes any buffered output.
func (p *Printer) Flush() error {
	return p.w.Flush()
}
