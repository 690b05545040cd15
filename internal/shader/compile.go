package shader

// Options configures Compile.
type Options struct {
	Library *Library
	Defines Defines
}

// Compile resolves includes, unrolls loops and prepends the definitions.
// Includes are resolved first so unroll regions inside chunks are expanded too.
func Compile(src string, opts Options) (string, error) {
	out := src
	if opts.Library != nil {
		var err error
		if out, err = opts.Library.ResolveIncludes(out); err != nil {
			return "", err
		}
	}
	out = UnrollLoops(out)
	return opts.Defines.Apply(out), nil
}
