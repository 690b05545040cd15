// Package driver holds frame sinks for render.Engine.
package driver

import (
	"errors"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

// Multi fans a frame out to several drivers. Every driver is written even if
// an earlier one fails; the errors are joined.
type Multi []render.Driver

func (m Multi) Write(buf []render.Color) error {
	var errs []error
	for _, d := range m {
		if d == nil {
			continue
		}
		if err := d.Write(buf); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
