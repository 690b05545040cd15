package temporal

import (
	"context"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

// PassName identifies the temporal resolve in the frame pipeline.
const PassName = "svgf-temporal-resolve"

// Pass runs a Resolver as a render.Pass. The resolved radiance replaces the
// frame color and the moments surface, if any, is attached to the frame.
type Pass struct {
	R *Resolver

	// OnStats, if set, receives the statistics of every resolved frame.
	OnStats func(Stats)
}

func NewPass(r *Resolver) *Pass { return &Pass{R: r} }

func (p *Pass) Name() string { return PassName }

func (p *Pass) Render(ctx context.Context, f *render.Frame) error {
	res, err := p.R.Resolve(ctx, Inputs{
		Color:  f.Color,
		Motion: f.Motion,
		Depth:  f.Depth,
		Normal: f.Normal,
	})
	if err != nil {
		return err
	}
	copy(f.Color, res.Radiance)
	f.Moments = res.Moments
	if p.OnStats != nil {
		res.Stats.Frame = f.Index
		p.OnStats(res.Stats)
	}
	return nil
}
