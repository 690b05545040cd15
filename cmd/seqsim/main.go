// Command seqsim dry-runs a sequence program and logs every hook call, which
// shows where history cuts and crossfades land without rendering anything.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-ssgi/internal/sequence"
)

func main() {
	var programPath string
	var fps int
	var maxS float64
	flag.StringVar(&programPath, "program", "", "path to a program YAML (seq.v1)")
	flag.IntVar(&fps, "fps", 60, "simulation frames per second")
	flag.Float64Var(&maxS, "max", 600, "stop looping programs after this many seconds")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	if programPath == "" {
		log.Fatal().Msg("provide -program path to a program YAML")
	}
	prog, err := sequence.LoadProgram(programPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load program")
	}

	var player *sequence.Player
	at := func() float64 { return player.Now() }
	h := sequence.Hooks{
		SetSource: func(name, preset string) {
			log.Info().Float64("t", at()).Str("source", name).Str("preset", preset).Msg("set source")
		},
		ArmNext: func(name, preset string) {
			log.Info().Float64("t", at()).Str("source", name).Str("preset", preset).Msg("arm next")
		},
		SetCrossfade: func(alpha float64) {
			log.Debug().Float64("t", at()).Float64("alpha", alpha).Msg("crossfade")
		},
		SetParam: func(name string, v float64) {},
		Cut: func() {
			log.Info().Float64("t", at()).Msg("history cut")
		},
	}
	player = sequence.NewPlayer(h)
	if err := player.Load(prog); err != nil {
		log.Fatal().Err(err).Msg("load")
	}
	player.Start()

	// Simulated time; no need to wait on a real ticker.
	dt := 1.0 / float64(max(fps, 1))
	elapsed := 0.0
	for player.State != sequence.Idle && elapsed < maxS {
		player.Tick(dt)
		elapsed += dt
	}
	log.Info().Float64("t", elapsed).Msg("done")
}
