// Package preview is a throttled driver that downscales frames and hands them
// to a live preview transport.
package preview

import (
	"image"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

// Frame is a packed 8-bit RGB image.
type Frame struct {
	W   int    `json:"w"`
	H   int    `json:"h"`
	RGB []byte `json:"rgb"`
}

// Emitter receives preview frames, e.g. a websocket broadcaster.
type Emitter interface {
	EmitFrame(Frame)
}

type Driver struct {
	dim      render.Dimensions
	out      Emitter
	maxWidth int
	throttle time.Duration
	lastEmit time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// New returns a driver emitting at most fps frames per second, downscaled so
// they are no wider than maxWidth (0 keeps the native size).
func New(dim render.Dimensions, out Emitter, maxWidth, fps int) *Driver {
	if fps <= 0 {
		fps = 20
	}
	return &Driver{
		dim:      dim,
		out:      out,
		maxWidth: maxWidth,
		throttle: time.Second / time.Duration(fps),
		now:      time.Now,
	}
}

func (d *Driver) Write(buf []render.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.lastEmit.IsZero() && d.lastEmit.Add(d.throttle).After(now) {
		return nil // throttle UI updates
	}
	d.lastEmit = now

	d.out.EmitFrame(Encode(buf, d.dim, d.maxWidth))
	return nil
}

// Encode quantizes buf and scales it down to maxWidth, keeping the aspect ratio.
func Encode(buf []render.Color, dim render.Dimensions, maxWidth int) Frame {
	src := render.ToRGBA(buf, dim)
	img := src
	if maxWidth > 0 && dim.W > maxWidth {
		h := max(1, dim.H*maxWidth/dim.W)
		img = image.NewRGBA(image.Rect(0, 0, maxWidth, h))
		xdraw.ApproxBiLinear.Scale(img, img.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	}

	b := img.Bounds()
	rgb := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			rgb = append(rgb, c.R, c.G, c.B)
		}
	}
	return Frame{W: b.Dx(), H: b.Dy(), RGB: rgb}
}
