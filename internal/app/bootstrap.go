package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/arcaluminis-ssgi/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-ssgi/internal/preview"
	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
	"github.com/coreman2200/arcaluminis-ssgi/internal/sequence"
	"github.com/coreman2200/arcaluminis-ssgi/internal/temporal"
)

// DefaultBurstThreshold is the reject ratio above which a frame is reported
// as a disocclusion burst.
const DefaultBurstThreshold = 0.25

type Options struct {
	Dim      render.Dimensions
	Source   string
	Preset   string
	Uniforms *render.Uniforms
	Temporal temporal.Config
	Driver   render.Driver

	// BurstThreshold <= 0 uses DefaultBurstThreshold.
	BurstThreshold float64
	// OnDiag receives diagnostics raised by the frame loop.
	OnDiag func(diag.Diagnostic)
}

// Core wires the source registry, the engine with its temporal pass and the
// sequencer.
type Core struct {
	Eng      *render.Engine
	Reg      *render.Registry
	Seq      *sequence.SafePlayer
	Resolver *temporal.Resolver

	opts Options

	mu        sync.Mutex
	source    string
	lastStats temporal.Stats
	// cut suppresses the burst report of the frame after a reset.
	cut bool
}

func InitCore(opts Options) (*Core, error) {
	reg := render.NewRegistry()
	registerDefaultSources(reg)

	name := opts.Source
	src, ok := reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown source %q (have %v)", name, reg.List())
	}

	u := opts.Uniforms
	if u == nil {
		d := render.DefaultUniforms()
		u = &d
	}
	if opts.Preset != "" {
		src.ApplyPreset(opts.Preset, u)
	}
	if opts.BurstThreshold <= 0 {
		opts.BurstThreshold = DefaultBurstThreshold
	}

	eng, err := render.NewEngine(opts.Dim, opts.Driver, src, u)
	if err != nil {
		return nil, err
	}
	res, err := temporal.New(opts.Dim.W, opts.Dim.H, opts.Temporal)
	if err != nil {
		return nil, err
	}

	c := &Core{Eng: eng, Reg: reg, Resolver: res, opts: opts, source: name}

	pass := temporal.NewPass(res)
	pass.OnStats = c.observe
	eng.AddPass(pass)

	hooks := sequence.Hooks{
		SetSource: func(name, preset string) {
			if err := eng.SetSource(name, preset, reg); err != nil {
				log.Warn().Err(err).Str("source", name).Msg("sequence source switch failed")
				c.emit(diag.Diagnostic{Severity: diag.Warn, Code: diag.CodeSourceUnknown, Summary: err.Error()})
				return
			}
			c.mu.Lock()
			c.source = name
			c.mu.Unlock()
		},
		ArmNext: func(name, preset string) {
			if err := eng.ArmNext(name, preset, reg); err != nil {
				log.Warn().Err(err).Str("source", name).Msg("sequence arm failed")
			}
		},
		SetCrossfade: eng.SetCrossfade,
		SetParam: func(k string, v float64) {
			if err := eng.SetParam(k, v); err != nil {
				log.Debug().Err(err).Str("param", k).Msg("sequence param ignored")
			}
		},
		Cut: func() { c.cutHistory("sequence cut") },
	}
	c.Seq = sequence.NewSafePlayer(hooks)
	return c, nil
}

// LoadProgram loads and starts a sequence program.
func (c *Core) LoadProgram(prog sequence.Program) error {
	var err error
	c.Seq.With(func(p *sequence.Player) {
		if err = p.Load(prog); err == nil {
			p.Start()
		}
	})
	return err
}

// Step advances the sequencer by dt seconds and renders one frame.
func (c *Core) Step(ctx context.Context, dt float64) error {
	c.Seq.With(func(p *sequence.Player) { p.Tick(dt) })
	if err := c.Eng.RenderOnce(ctx, -1); err != nil {
		c.emit(diag.ResolveFailed(c.Eng.FrameID(), err))
		return err
	}
	return nil
}

func (c *Core) ResetHistory() { c.cutHistory("manual reset") }

func (c *Core) cutHistory(reason string) {
	c.Resolver.ResetHistory()
	c.mu.Lock()
	c.cut = true
	c.mu.Unlock()
	c.emit(diag.HistoryReset(c.Eng.FrameID(), reason))
}

func (c *Core) SetParam(name string, v float64) error { return c.Eng.SetParam(name, v) }

func (c *Core) Status() preview.Status {
	id := c.Eng.FrameID()
	c.mu.Lock()
	defer c.mu.Unlock()
	return preview.Status{
		FrameID: id,
		Source:  c.source,
		Width:   c.opts.Dim.W,
		Height:  c.opts.Dim.H,
		Stats:   c.lastStats,
	}
}

// observe runs on the frame loop after every resolve.
func (c *Core) observe(st temporal.Stats) {
	c.mu.Lock()
	c.lastStats = st
	afterCut := c.cut
	c.cut = false
	c.mu.Unlock()

	if afterCut || st.Pixels == 0 {
		return
	}
	moved := st.OffScreen + st.DepthRejected + st.NormalRejected
	ratio := float64(moved) / float64(st.Pixels)
	if ratio > c.opts.BurstThreshold {
		c.emit(diag.DisocclusionBurst(st.Frame, ratio, c.opts.BurstThreshold, st.OffScreen, st.DepthRejected, st.NormalRejected))
	}
}

func (c *Core) emit(d diag.Diagnostic) {
	if c.opts.OnDiag != nil {
		c.opts.OnDiag(d)
	}
}

func (c *Core) Close() error { return c.Resolver.Close() }
