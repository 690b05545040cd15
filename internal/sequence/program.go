package sequence

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ParseProgram decodes a YAML program and sorts envelope keys by time.
func ParseProgram(b []byte) (Program, error) {
	var prog Program
	if err := yaml.Unmarshal(b, &prog); err != nil {
		return Program{}, fmt.Errorf("parse program: %w", err)
	}
	if len(prog.Clips) == 0 {
		return Program{}, ErrEmptyProgram
	}
	for i, c := range prog.Clips {
		if c.Source == "" {
			return Program{}, fmt.Errorf("clip %d (%s): source is required", i, c.Name)
		}
		if c.DurationS <= 0 {
			return Program{}, fmt.Errorf("clip %d (%s): duration_s must be > 0", i, c.Name)
		}
		if c.XFadeS > c.DurationS {
			return Program{}, fmt.Errorf("clip %d (%s): xfade_s exceeds duration_s", i, c.Name)
		}
		for name, env := range c.Params {
			sort.SliceStable(env.Keys, func(a, b int) bool { return env.Keys[a].T < env.Keys[b].T })
			c.Params[name] = env
		}
	}
	return prog, nil
}

// LoadProgram reads and parses a program file.
func LoadProgram(path string) (Program, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Program{}, err
	}
	return ParseProgram(b)
}
