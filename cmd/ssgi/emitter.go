package main

import (
	"sync"

	diag "github.com/coreman2200/arcaluminis-ssgi/internal/diagnostics"
	framedrv "github.com/coreman2200/arcaluminis-ssgi/internal/driver/preview"
	"github.com/coreman2200/arcaluminis-ssgi/internal/preview"
)

// emitter forwards frames and diagnostics to the preview server once it is
// attached; before that they are dropped.
type emitter struct {
	mu  sync.RWMutex
	srv *preview.Server
}

func (e *emitter) set(s *preview.Server) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.srv = s
}

func (e *emitter) EmitFrame(f framedrv.Frame) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.srv != nil {
		e.srv.EmitFrame(f)
	}
}

func (e *emitter) PushDiag(d diag.Diagnostic) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.srv != nil {
		e.srv.PushDiag(d)
	}
}
