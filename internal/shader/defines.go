package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// Define is a single preprocessor definition. An empty Value renders as a bare
// flag ("#define NAME").
type Define struct {
	Name  string
	Value string
}

// Defines is an ordered set of preprocessor definitions handed to a shader at
// pipeline construction time.
type Defines []Define

// Set adds or replaces name. Floats are formatted in their shortest exact form.
func (d *Defines) Set(name string, value any) {
	v := formatValue(value)
	for i := range *d {
		if (*d)[i].Name == name {
			(*d)[i].Value = v
			return
		}
	}
	*d = append(*d, Define{Name: name, Value: v})
}

func (d Defines) Get(name string) (string, bool) {
	for _, def := range d {
		if def.Name == name {
			return def.Value, true
		}
	}
	return "", false
}

// Merge returns a copy of d with every definition of o set on top.
func (d Defines) Merge(o Defines) Defines {
	out := append(Defines(nil), d...)
	for _, def := range o {
		out.Set(def.Name, def.Value)
	}
	return out
}

// Header renders the definitions as #define lines.
func (d Defines) Header() string {
	var b strings.Builder
	for _, def := range d {
		b.WriteString("#define ")
		b.WriteString(def.Name)
		if def.Value != "" {
			b.WriteByte(' ')
			b.WriteString(def.Value)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Apply prepends the header to src, keeping a leading #version line first.
func (d Defines) Apply(src string) string {
	if len(d) == 0 {
		return src
	}
	if strings.HasPrefix(src, "#version") {
		line, rest, _ := strings.Cut(src, "\n")
		return line + "\n" + d.Header() + rest
	}
	return d.Header() + src
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
