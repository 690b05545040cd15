// Package pngseq writes tone-mapped frames to a directory as numbered PNGs.
package pngseq

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

type Driver struct {
	Dir   string
	Dim   render.Dimensions
	Every int

	count   int
	written int
}

// New creates dir if needed. every <= 0 writes every frame.
func New(dir string, dim render.Dimensions, every int) (*Driver, error) {
	if every <= 0 {
		every = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pngseq: %w", err)
	}
	return &Driver{Dir: dir, Dim: dim, Every: every}, nil
}

func (d *Driver) Write(buf []render.Color) error {
	n := d.count
	d.count++
	if n%d.Every != 0 {
		return nil
	}
	if len(buf) != d.Dim.Count() {
		return fmt.Errorf("pngseq: frame has %d pixels, want %d", len(buf), d.Dim.Count())
	}

	path := d.Path(n)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pngseq: %w", err)
	}
	if err := png.Encode(f, render.ToRGBA(buf, d.Dim)); err != nil {
		f.Close()
		return fmt.Errorf("pngseq: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("pngseq: %w", err)
	}
	d.written++
	log.Debug().Str("path", path).Msg("frame written")
	return nil
}

// Path is the file name used for frame n.
func (d *Driver) Path(n int) string {
	return filepath.Join(d.Dir, fmt.Sprintf("frame_%06d.png", n))
}

// Written is the number of files written so far.
func (d *Driver) Written() int { return d.written }
