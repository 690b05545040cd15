// Package temporal implements the temporal reprojection and moment
// accumulation stage of an SVGF-style denoiser.
//
// Each frame, every pixel reprojects into the previous frame's output using
// the host's motion vectors, checks that the history sample still belongs to
// the same surface, and blends the new noisy sample into it with a weight of
// 1/historyLength. Optionally the first and second moments of luminance are
// accumulated the same way into a second surface so a downstream spatial
// filter can derive per-pixel variance.
//
// All state is double buffered: the frame being written and the history being
// read never alias, and the roles swap once per frame after every tile
// finished.
package temporal

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("temporal: invalid config")
	ErrInputSize     = errors.New("temporal: input size mismatch")
	ErrClosed        = errors.New("temporal: resolver closed")
)

// MinHistory is the history length of a pixel holding only the current sample.
const MinHistory = 1

// Config is the per-pass configuration. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	// Moments enables the second output surface (mean, mean of squares).
	Moments bool `yaml:"moments" json:"moments"`
	// MaxHistory caps the history length, bounding the blend weight below at 1/MaxHistory.
	MaxHistory float32 `yaml:"max_history" json:"max_history"`
	// DepthThreshold is the largest accepted relative depth change.
	DepthThreshold float32 `yaml:"depth_threshold" json:"depth_threshold"`
	// NormalThreshold is the smallest accepted cosine between current and history normals.
	NormalThreshold float32 `yaml:"normal_threshold" json:"normal_threshold"`
	// TileSize is the edge of the square tiles handed to workers.
	TileSize int `yaml:"tile_size" json:"tile_size"`
	// Workers is the worker count; 0 uses runtime.NumCPU.
	Workers int `yaml:"workers" json:"workers"`
}

func DefaultConfig() Config {
	return Config{
		Moments:         true,
		MaxHistory:      32,
		DepthThreshold:  0.1,
		NormalThreshold: 0.9,
		TileSize:        64,
		Workers:         0,
	}
}

func (c Config) Validate() error {
	switch {
	case c.MaxHistory < MinHistory:
		return fmt.Errorf("%w: max_history %v < %d", ErrInvalidConfig, c.MaxHistory, MinHistory)
	case c.DepthThreshold <= 0:
		return fmt.Errorf("%w: depth_threshold must be > 0, got %v", ErrInvalidConfig, c.DepthThreshold)
	case c.NormalThreshold < -1 || c.NormalThreshold > 1:
		return fmt.Errorf("%w: normal_threshold must be in [-1,1], got %v", ErrInvalidConfig, c.NormalThreshold)
	case c.TileSize <= 0:
		return fmt.Errorf("%w: tile_size must be > 0, got %d", ErrInvalidConfig, c.TileSize)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}
