package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/arcaluminis-ssgi/internal/temporal"
)

type Dim struct {
	W int `yaml:"w"`
	H int `yaml:"h"`
}

type Preview struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`      // e.g. :8080
	MaxWidth int    `yaml:"max_width"` // frames wider than this are downscaled
	FPS      int    `yaml:"fps"`       // websocket push rate
}

type Sink struct {
	Kind  string `yaml:"kind"`            // "fake" | "pngseq"
	Dir   string `yaml:"dir,omitempty"`   // pngseq output directory
	Every int    `yaml:"every,omitempty"` // pngseq: write every Nth frame
}

type Config struct {
	Dim    Dim     `yaml:"dim"`
	FPS    int     `yaml:"fps"`
	Source string  `yaml:"source"`
	Preset string  `yaml:"preset,omitempty"`
	Gamma  float64 `yaml:"gamma"`

	ExposureEV float64 `yaml:"exposure_ev"`

	// Program is an optional sequence file; empty runs Source forever.
	Program string `yaml:"program,omitempty"`

	Temporal temporal.Config `yaml:"temporal"`
	Preview  Preview         `yaml:"preview"`
	Sink     Sink            `yaml:"sink"`
}

func Default() *Config {
	return &Config{
		Dim:      Dim{W: 320, H: 180},
		FPS:      30,
		Source:   "noisy",
		Preset:   "default",
		Gamma:    2.2,
		Temporal: temporal.DefaultConfig(),
		Preview:  Preview{Enabled: true, Addr: ":8080", MaxWidth: 320, FPS: 15},
		Sink:     Sink{Kind: "fake", Every: 1},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Dim.W <= 0 || c.Dim.H <= 0 {
		errs = append(errs, fmt.Errorf("dim must be positive, got %dx%d", c.Dim.W, c.Dim.H))
	}
	if c.FPS <= 0 {
		errs = append(errs, fmt.Errorf("fps must be > 0, got %d", c.FPS))
	}
	if c.Source == "" && c.Program == "" {
		errs = append(errs, errors.New("either source or program must be set"))
	}
	switch c.Sink.Kind {
	case "", "fake":
	case "pngseq":
		if c.Sink.Dir == "" {
			errs = append(errs, errors.New("sink.dir is required for pngseq"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sink kind %q", c.Sink.Kind))
	}
	if err := c.Temporal.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Load reads path over Default, so keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
