// Command offline renders a fixed number of frames without a preview server,
// stepping the timeline at a fixed rate instead of wall-clock time.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-ssgi/internal/app"
	"github.com/coreman2200/arcaluminis-ssgi/internal/config"
	"github.com/coreman2200/arcaluminis-ssgi/internal/diagnostics"
	"github.com/coreman2200/arcaluminis-ssgi/internal/driver/pngseq"
	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
	"github.com/coreman2200/arcaluminis-ssgi/internal/sequence"
)

func main() {
	var (
		configPath = flag.String("config", "", "optional config.yaml")
		frames     = flag.Int("frames", 120, "frames to render")
		outDir     = flag.String("out", "frames", "PNG output directory")
		every      = flag.Int("every", 1, "write every Nth frame")
		program    = flag.String("program", "", "sequence program (YAML)")
		source     = flag.String("source", "", "source override")
		preset     = flag.String("preset", "", "preset override")
	)
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
		}
		cfg = c
	}
	if *source != "" {
		cfg.Source = *source
	}
	if *preset != "" {
		cfg.Preset = *preset
	}
	if *program != "" {
		cfg.Program = *program
	}
	if err := run(cfg, *frames, *outDir, *every); err != nil {
		log.Fatal().Err(err).Msg("offline render failed")
	}
}

// run validates cfg, renders frames at 1/FPS steps into outDir and logs a
// summary. Resources are released before any error is returned.
func run(cfg *config.Config, frames int, outDir string, every int) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	var prog *sequence.Program
	if cfg.Program != "" {
		p, err := sequence.LoadProgram(cfg.Program)
		if err != nil {
			return fmt.Errorf("load program %s: %w", cfg.Program, err)
		}
		prog = &p
	}
	dim := render.Dimensions{W: cfg.Dim.W, H: cfg.Dim.H}

	drv, err := pngseq.New(outDir, dim, every)
	if err != nil {
		return fmt.Errorf("sink init: %w", err)
	}

	u := render.DefaultUniforms()
	u.ExposureEV = cfg.ExposureEV
	u.OutputGamma = cfg.Gamma
	core, err := app.InitCore(app.Options{
		Dim:      dim,
		Source:   cfg.Source,
		Preset:   cfg.Preset,
		Uniforms: &u,
		Temporal: cfg.Temporal,
		Driver:   drv,
		OnDiag: func(d diagnostics.Diagnostic) {
			log.Info().Str("code", d.Code).Str("summary", d.Summary).Msg("diagnostic")
		},
	})
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer core.Close()

	if prog != nil {
		if err := core.LoadProgram(*prog); err != nil {
			return fmt.Errorf("start program: %w", err)
		}
	}

	ctx := context.Background()
	dt := 1.0 / float64(cfg.FPS)
	start := time.Now()
	var resolveMS float64
	for i := 0; i < frames; i++ {
		if err := core.Step(ctx, dt); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		resolveMS += core.Eng.Last.PassMS
	}
	st := core.Status().Stats
	log.Info().
		Int("frames", frames).
		Int("written", drv.Written()).
		Dur("elapsed", time.Since(start)).
		Float64("avg_pass_ms", resolveMS/float64(max(frames, 1))).
		Float64("mean_history", st.MeanHistory()).
		Msg("done")
	return nil
}
