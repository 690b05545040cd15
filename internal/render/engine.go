package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Driver abstracts the frame sink (PNG sequence, preview, etc.).
type Driver interface {
	Write([]Color) error
}

// Pass is one stage of the per-frame pipeline. Passes run in order after the
// source filled the frame; a pass may replace f.Color and set f.Moments.
type Pass interface {
	Name() string
	Render(ctx context.Context, f *Frame) error
}

// PostPipeline groups display post stages; all are optional.
type PostPipeline struct {
	ToneMap func([]Color)
}

// Engine renders frames with the active Source, runs the pass pipeline,
// applies post-processing, then writes to the driver.
type Engine struct {
	Dim Dimensions
	Drv Driver
	Src Source
	U   *Uniforms

	mu      sync.Mutex
	frame   *Frame
	Out     []Color // post-processed copy of the last frame
	passes  []Pass
	post    PostPipeline
	frameID uint64

	// crossfade; the armed source renders with its own uniforms
	next      Source
	nextU     *Uniforms
	nextFrame *Frame
	alpha     float64

	t0 time.Time

	// metrics (last durations in ms)
	Last struct {
		RenderMS float64
		PassMS   float64
		PostMS   float64
		TotalMS  float64
	}
}

// NewEngine allocates the frame and returns an Engine with filmic post wired.
func NewEngine(dim Dimensions, drv Driver, src Source, u *Uniforms) (*Engine, error) {
	if dim.Count() <= 0 {
		return nil, errors.New("invalid dimensions")
	}
	if u == nil {
		d := DefaultUniforms()
		u = &d
	}
	e := &Engine{
		Dim:   dim,
		Drv:   drv,
		Src:   src,
		U:     u,
		frame: NewFrame(dim),
		Out:   make([]Color, dim.Count()),
		t0:    time.Now(),
	}
	e.UseFilmicPost()
	return e, nil
}

// AddPass appends a pass to the pipeline.
func (e *Engine) AddPass(p Pass) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.passes = append(e.passes, p)
}

// Passes returns the pipeline in execution order.
func (e *Engine) Passes() []Pass {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Pass(nil), e.passes...)
}

// Now returns seconds since engine start, scaled by TimeScale.
func (e *Engine) Now() float64 {
	scale := 1.0
	if e.U != nil && e.U.TimeScale != 0 {
		scale = e.U.TimeScale
	}
	return time.Since(e.t0).Seconds() * scale
}

// RenderOnce renders a single frame at absolute time t (seconds).
// If t < 0, it uses Engine.Now().
func (e *Engine) RenderOnce(ctx context.Context, t float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t < 0 {
		t = e.Now()
	}
	start := time.Now()

	f := e.frame
	f.Index = e.frameID
	f.Moments = nil
	if e.Src != nil {
		e.Src.Render(f, t, e.U)
	}
	if e.next != nil && e.alpha > 0 {
		e.nextFrame.Index = f.Index
		e.next.Render(e.nextFrame, t, e.nextU)
		Mix(f.Color, f.Color, e.nextFrame.Color, e.alpha)
	}
	e.Last.RenderMS = msSince(start)

	passStart := time.Now()
	for _, p := range e.passes {
		if err := p.Render(ctx, f); err != nil {
			return fmt.Errorf("pass %s: %w", p.Name(), err)
		}
	}
	e.Last.PassMS = msSince(passStart)

	postStart := time.Now()
	copy(e.Out, f.Color)
	if e.post.ToneMap != nil {
		e.post.ToneMap(e.Out)
	}
	e.Last.PostMS = msSince(postStart)

	if e.Drv != nil {
		if err := e.Drv.Write(e.Out); err != nil {
			return err
		}
	}

	e.frameID++
	e.Last.TotalMS = msSince(start)
	return nil
}

// FrameID is the number of frames completed so far.
func (e *Engine) FrameID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameID
}

// Snapshot copies the last post-processed frame.
func (e *Engine) Snapshot() []Color {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Color(nil), e.Out...)
}

func (e *Engine) UseFilmicPost() {
	e.SetPost(PostPipeline{
		ToneMap: func(buf []Color) { FilmicToneMap(buf, e.U) },
	})
}

func (e *Engine) SetPost(p PostPipeline) { e.post = p }

// ---- Hooks that match Sequencer expectations ----

// SetSource becomes the active source immediately.
// If preset != "", ApplyPreset is called on the source with U.
func (e *Engine) SetSource(name string, preset string, reg *Registry) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	s, ok := reg.Get(name)
	if !ok {
		return errors.New("source not found: " + name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Src = s
	e.next, e.nextU = nil, nil
	e.alpha = 0
	if preset != "" {
		s.ApplyPreset(preset, e.U)
	}
	return nil
}

// ArmNext prepares a source to crossfade into. Only the radiance is blended;
// geometry planes stay those of the active source. The preset lands on a copy
// of the uniforms, and a Cloner source is armed as its own instance, so the
// active shot is untouched until SetSource switches to it.
func (e *Engine) ArmNext(name string, preset string, reg *Registry) error {
	if reg == nil {
		return errors.New("registry is nil")
	}
	s, ok := reg.Get(name)
	if !ok {
		return errors.New("source not found: " + name)
	}
	if c, ok := s.(Cloner); ok {
		s = c.Clone()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	u := DefaultUniforms()
	if e.U != nil {
		u = *e.U
	}
	if preset != "" {
		s.ApplyPreset(preset, &u)
	}
	e.next, e.nextU = s, &u
	if e.nextFrame == nil {
		e.nextFrame = NewFrame(e.Dim)
	}
	return nil
}

// SetCrossfade sets the mix between the active (0) and armed (1) source.
func (e *Engine) SetCrossfade(alpha float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alpha = max(0, min(1, alpha))
}

// SetParam updates the uniforms.
func (e *Engine) SetParam(name string, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.U == nil {
		return errors.New("uniforms are nil")
	}
	return e.U.Set(name, v)
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
