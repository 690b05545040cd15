// Package shader holds the text-level shader preprocessing used before sources
// reach the rendering backend: loop unrolling, preprocessor definitions and a
// scoped chunk library with #include resolution.
package shader

import (
	"regexp"
	"strconv"
	"strings"
)

// UnrolledLoopIndex is replaced by the literal loop index in unrolled bodies.
const UnrolledLoopIndex = "UNROLLED_LOOP_INDEX"

var (
	unrollLoopPattern = regexp.MustCompile(`#pragma unroll_loop_start\s+for\s*\(\s*int\s+i\s*=\s*(\d+)\s*;\s*i\s*<\s*(\d+)\s*;\s*i\s*\+\+\s*\)\s*\{([\s\S]+?)\}\s+#pragma unroll_loop_end`)
	loopIndexPattern  = regexp.MustCompile(`\[\s*i\s*\]`)
)

// UnrollLoops expands every region of the form
//
//	#pragma unroll_loop_start
//	for ( int i = START; i < END; i ++ ) { BODY }
//	#pragma unroll_loop_end
//
// into BODY repeated for i = START..END-1. Inside each copy, [i] becomes [ N ]
// and UNROLLED_LOOP_INDEX becomes N. Regions that do not match the canonical
// form are left as they are. The body ends at the first closing brace that is
// followed by the end marker; nested regions are not supported and produce
// undefined output.
func UnrollLoops(src string) string {
	matches := unrollLoopPattern.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src
	}

	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, m := range matches {
		start, err1 := strconv.Atoi(src[m[2]:m[3]])
		end, err2 := strconv.Atoi(src[m[4]:m[5]])
		if err1 != nil || err2 != nil {
			// out of int range; leave the region alone
			continue
		}
		b.WriteString(src[last:m[0]])
		b.WriteString(unrollBody(src[m[6]:m[7]], start, end))
		last = m[1]
	}
	b.WriteString(src[last:])
	return b.String()
}

func unrollBody(snippet string, start, end int) string {
	var b strings.Builder
	for i := start; i < end; i++ {
		n := strconv.Itoa(i)
		body := loopIndexPattern.ReplaceAllLiteralString(snippet, "[ "+n+" ]")
		b.WriteString(strings.ReplaceAll(body, UnrolledLoopIndex, n))
	}
	return b.String()
}
