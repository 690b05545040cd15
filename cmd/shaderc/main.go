// Command shaderc preprocesses a GLSL source: it expands #include chunks,
// unrolls marked loops and prepends #define lines, optionally including the
// cube-UV environment map constants for a given env map height.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/arcaluminis-ssgi/internal/envmap"
	"github.com/coreman2200/arcaluminis-ssgi/internal/sampling"
	"github.com/coreman2200/arcaluminis-ssgi/internal/shader"
)

// defineFlags collects repeated -D NAME[=VALUE] flags.
type defineFlags []shader.Define

func (d *defineFlags) String() string { return fmt.Sprint(*d) }

func (d *defineFlags) Set(v string) error {
	name, value, _ := strings.Cut(v, "=")
	if name == "" {
		return fmt.Errorf("empty define in %q", v)
	}
	*d = append(*d, shader.Define{Name: name, Value: value})
	return nil
}

func main() {
	var defs defineFlags
	var (
		in        = flag.String("in", "", "input shader (default stdin)")
		out       = flag.String("out", "", "output file (default stdout)")
		envHeight = flag.Int("env-height", 0, "cube-UV env map height; 0 means no env map")
		chunks    = flag.String("chunks", "", "directory of *.glsl include chunks")
		patchIBL  = flag.Bool("patch-ibl", false, "guard getIBLRadiance with iblRadianceDisabled")
		vogel     = flag.Int("vogel", 0, "emit a Vogel disk table with this many samples")
	)
	flag.Var(&defs, "D", "preprocessor define NAME[=VALUE] (repeatable)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := run(*in, *out, *envHeight, *chunks, *patchIBL, *vogel, defs); err != nil {
		log.Fatal().Err(err).Msg("shaderc failed")
	}
}

func run(in, out string, envHeight int, chunks string, patchIBL bool, vogel int, defs defineFlags) error {
	src, err := readInput(in)
	if err != nil {
		return err
	}

	opts := shader.Options{}
	if chunks != "" {
		lib, err := shader.LoadLibrary(os.DirFS(chunks))
		if err != nil {
			return err
		}
		if patchIBL {
			if _, err := lib.PatchIBLRadianceToggle(); err != nil {
				return err
			}
		}
		opts.Library = lib
	} else if patchIBL {
		return fmt.Errorf("-patch-ibl needs -chunks")
	}

	if size := envmap.CubeUVSizeFor(envHeight); size != nil {
		opts.Defines = opts.Defines.Merge(size.Defines())
		log.Debug().Float64("max_mip", size.MaxMip).Msg("env map defines added")
	}
	opts.Defines = opts.Defines.Merge(shader.Defines(defs))

	if vogel > 0 {
		table, err := vogelTable(vogel)
		if err != nil {
			return err
		}
		opts.Defines.Set("VOGEL_SAMPLES", vogel)
		src = table + src
	}

	res, err := shader.Compile(src, opts)
	if err != nil {
		return err
	}
	if out == "" {
		_, err = io.WriteString(os.Stdout, res)
		return err
	}
	return os.WriteFile(out, []byte(res), 0644)
}

// vogelTable renders an n-point unit Vogel disk as a packed vec4 constant
// array: slot k holds points 2k and 2k+1.
func vogelTable(n int) (string, error) {
	pts, err := sampling.VogelPoints(n, 1)
	if err != nil {
		return "", err
	}
	slots := sampling.PackVec4(sampling.Flatten(pts))
	var b strings.Builder
	fmt.Fprintf(&b, "const vec4 vogelDisk[%d] = vec4[](\n", len(slots))
	for i, v := range slots {
		fmt.Fprintf(&b, "\tvec4(%s, %s, %s, %s)", glslNum(v[0]), glslNum(v[1]), glslNum(v[2]), glslNum(v[3]))
		if i < len(slots)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(");\n")
	return b.String(), nil
}

func glslNum(v float64) string {
	s := strconv.FormatFloat(v, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	if s == "-0.0" {
		s = "0.0"
	}
	return s
}

func readInput(path string) (string, error) {
	var b []byte
	var err error
	if path == "" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
