package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"sync"
)

// ChunkEnvmapPhysicalPars is the chunk holding the image based lighting lookup.
const ChunkEnvmapPhysicalPars = "envmap_physical_pars_fragment"

const iblRadianceSignature = "vec3 getIBLRadiance( const in vec3 viewDir, const in vec3 normal, const in float roughness ) {"

const iblRadianceGuarded = `
uniform bool iblRadianceDisabled;

vec3 getIBLRadiance( const in vec3 viewDir, const in vec3 normal, const in float roughness ) {
	if(iblRadianceDisabled) return vec3(0.);
`

var (
	ErrChunkNotFound  = errors.New("shader: chunk not found")
	ErrIncludeCycle   = errors.New("shader: include cycle")
	ErrPatchSignature = errors.New("shader: patch signature not found")

	includePattern = regexp.MustCompile(`(?m)^[ \t]*#include +<([\w\d./]+)>`)
)

// IBLRadianceToggle is the typed uniform record backing iblRadianceDisabled.
// Every material compiled from the same Library shares one toggle.
type IBLRadianceToggle struct {
	mu       sync.RWMutex
	disabled bool
}

func (t *IBLRadianceToggle) Name() string { return "iblRadianceDisabled" }

func (t *IBLRadianceToggle) Disabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.disabled
}

func (t *IBLRadianceToggle) SetDisabled(v bool) {
	t.mu.Lock()
	t.disabled = v
	t.mu.Unlock()
}

// Library is a chunk table owned by one pipeline. It copies its input so
// patches never leak into other pipelines.
type Library struct {
	mu     sync.RWMutex
	chunks map[string]string
	ibl    *IBLRadianceToggle
}

func NewLibrary(chunks map[string]string) *Library {
	l := &Library{chunks: make(map[string]string, len(chunks))}
	for k, v := range chunks {
		l.chunks[k] = v
	}
	return l
}

func (l *Library) Chunk(name string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.chunks[name]
	return s, ok
}

func (l *Library) SetChunk(name, src string) {
	l.mu.Lock()
	l.chunks[name] = src
	l.mu.Unlock()
}

// PatchIBLRadianceToggle guards getIBLRadiance with an iblRadianceDisabled
// uniform. Repeated calls return the same toggle without patching again.
func (l *Library) PatchIBLRadianceToggle() (*IBLRadianceToggle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ibl != nil {
		return l.ibl, nil
	}
	src, ok := l.chunks[ChunkEnvmapPhysicalPars]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, ChunkEnvmapPhysicalPars)
	}
	if !strings.Contains(src, "iblRadianceDisabled") {
		if !strings.Contains(src, iblRadianceSignature) {
			return nil, fmt.Errorf("%w: getIBLRadiance in %s", ErrPatchSignature, ChunkEnvmapPhysicalPars)
		}
		l.chunks[ChunkEnvmapPhysicalPars] = strings.Replace(src, iblRadianceSignature, iblRadianceGuarded, 1)
	}
	l.ibl = &IBLRadianceToggle{}
	return l.ibl, nil
}

// ResolveIncludes expands #include <name> lines recursively.
func (l *Library) ResolveIncludes(src string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.resolve(src, map[string]bool{})
}

func (l *Library) resolve(src string, stack map[string]bool) (string, error) {
	var firstErr error
	out := includePattern.ReplaceAllStringFunc(src, func(m string) string {
		if firstErr != nil {
			return m
		}
		name := includePattern.FindStringSubmatch(m)[1]
		if stack[name] {
			firstErr = fmt.Errorf("%w: %s", ErrIncludeCycle, name)
			return m
		}
		chunk, ok := l.chunks[name]
		if !ok {
			firstErr = fmt.Errorf("%w: %s", ErrChunkNotFound, name)
			return m
		}
		stack[name] = true
		expanded, err := l.resolve(chunk, stack)
		delete(stack, name)
		if err != nil {
			firstErr = err
			return m
		}
		return expanded
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// LoadLibrary builds a Library from every *.glsl file at the root of fsys,
// keyed by file name without extension.
func LoadLibrary(fsys fs.FS) (*Library, error) {
	paths, err := fs.Glob(fsys, "*.glsl")
	if err != nil {
		return nil, err
	}
	chunks := make(map[string]string, len(paths))
	for _, p := range paths {
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("shader: read chunk %s: %w", p, err)
		}
		chunks[strings.TrimSuffix(path.Base(p), ".glsl")] = string(b)
	}
	return NewLibrary(chunks), nil
}
