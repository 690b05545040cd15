package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-ssgi/internal/app"
	"github.com/coreman2200/arcaluminis-ssgi/internal/config"
	"github.com/coreman2200/arcaluminis-ssgi/internal/driver"
	"github.com/coreman2200/arcaluminis-ssgi/internal/driver/fake"
	"github.com/coreman2200/arcaluminis-ssgi/internal/driver/pngseq"
	framedrv "github.com/coreman2200/arcaluminis-ssgi/internal/driver/preview"
	"github.com/coreman2200/arcaluminis-ssgi/internal/preview"
	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
	"github.com/coreman2200/arcaluminis-ssgi/internal/sequence"
)

func main() {
	// ---- Flags (remain usable; config.yaml can override most) ----
	var (
		w          = flag.Int("w", 0, "frame width (pixels)")
		h          = flag.Int("h", 0, "frame height (pixels)")
		fps        = flag.Int("fps", 0, "target frames per second")
		source     = flag.String("source", "", "source: noisy | solid")
		preset     = flag.String("preset", "", "source preset")
		program    = flag.String("program", "", "sequence program (YAML)")
		sink       = flag.String("sink", "", "frame sink: fake | pngseq")
		outDir     = flag.String("out", "", "pngseq output directory")
		addr       = flag.String("addr", "", "preview listen address")
		noPreview  = flag.Bool("no-preview", false, "disable the preview server")
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	// ---- Load config.yaml (optional) ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with defaults and flags")
		cfg = config.Default()
	}

	// ---- Flags override config where set ----
	if *w > 0 {
		cfg.Dim.W = *w
	}
	if *h > 0 {
		cfg.Dim.H = *h
	}
	if *fps > 0 {
		cfg.FPS = *fps
	}
	cfg.Source = firstNonEmpty(*source, cfg.Source)
	cfg.Preset = firstNonEmpty(*preset, cfg.Preset)
	cfg.Program = firstNonEmpty(*program, cfg.Program)
	cfg.Sink.Kind = firstNonEmpty(*sink, cfg.Sink.Kind)
	cfg.Sink.Dir = firstNonEmpty(*outDir, cfg.Sink.Dir)
	cfg.Preview.Addr = firstNonEmpty(*addr, cfg.Preview.Addr)
	if *noPreview {
		cfg.Preview.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	// Fail on a bad program before anything needs releasing.
	prog, err := loadProgram(cfg.Program)
	if err != nil {
		log.Fatal().Err(err).Msg("program load failed")
	}
	dim := render.Dimensions{W: cfg.Dim.W, H: cfg.Dim.H}

	// ---- Frame sinks ----
	var drivers driver.Multi
	switch cfg.Sink.Kind {
	case "pngseq":
		d, err := pngseq.New(cfg.Sink.Dir, dim, cfg.Sink.Every)
		if err != nil {
			log.Fatal().Err(err).Msg("pngseq init failed")
		}
		drivers = append(drivers, d)
	default:
		drivers = append(drivers, &fake.Driver{LogEvery: cfg.FPS})
	}

	// The preview server needs the core as its controller and the core needs
	// the preview driver, so the server is attached after InitCore.
	var srv *preview.Server
	var hub emitter
	if cfg.Preview.Enabled {
		drivers = append(drivers, framedrv.New(dim, &hub, cfg.Preview.MaxWidth, cfg.Preview.FPS))
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
		Driver:   drivers,
		OnDiag:   hub.PushDiag,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init failed")
	}
	defer core.Close()

	if prog != nil {
		if err := core.LoadProgram(*prog); err != nil {
			core.Close()
			log.Fatal().Err(err).Msg("program start failed")
		}
		log.Info().Str("path", cfg.Program).Int("clips", len(prog.Clips)).Msg("program loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- HTTP preview ----
	var httpSrv *http.Server
	if cfg.Preview.Enabled {
		srv = preview.NewServer(core)
		hub.set(srv)
		httpSrv = &http.Server{
			Addr:         cfg.Preview.Addr,
			Handler:      srv.Routes(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Preview.Addr).Msg("preview server starting")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("preview server crashed")
				stop()
			}
		}()
	}

	log.Info().
		Int("w", dim.W).Int("h", dim.H).Int("fps", cfg.FPS).
		Str("source", cfg.Source).Str("sink", cfg.Sink.Kind).
		Bool("moments", cfg.Temporal.Moments).
		Msg("frame loop starting")
	if err := core.Run(ctx, cfg.FPS); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("frame loop stopped")
	}

	// ---- Graceful shutdown ----
	log.Info().Uint64("frames", core.Eng.FrameID()).Msg("shutting down")
	if httpSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}
}

// loadProgram reads the sequence program at path; an empty path means none.
func loadProgram(path string) (*sequence.Program, error) {
	if path == "" {
		return nil, nil
	}
	prog, err := sequence.LoadProgram(path)
	if err != nil {
		return nil, fmt.Errorf("program %s: %w", path, err)
	}
	return &prog, nil
}

func firstNonEmpty(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
