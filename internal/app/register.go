package app

import (
	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
	"github.com/coreman2200/arcaluminis-ssgi/internal/render/sources/noisy"
	"github.com/coreman2200/arcaluminis-ssgi/internal/render/sources/solid"
)

func registerDefaultSources(reg *render.Registry) {
	reg.Register(solid.New("solid", render.Color{R: 0.18, G: 0.18, B: 0.18}))
	reg.Register(noisy.New("noisy"))
}
