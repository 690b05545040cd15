package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnrollLoopsSingleRegion(t *testing.T) {
	src := "float a;\n#pragma unroll_loop_start\nfor (int i=0;i<3;i++){ x[i]=UNROLLED_LOOP_INDEX; }\n#pragma unroll_loop_end\nfloat b;"

	got := UnrollLoops(src)

	assert.Equal(t, "float a;\n x[ 0 ]=0;  x[ 1 ]=1;  x[ 2 ]=2; \nfloat b;", got)
	assert.Equal(t, 3, strings.Count(got, "x["))
	assert.NotContains(t, got, "unroll_loop_start")
	assert.NotContains(t, got, "unroll_loop_end")
	assert.NotContains(t, got, UnrolledLoopIndex)
}

func TestUnrollLoopsThreeStyleSpacing(t *testing.T) {
	src := `#pragma unroll_loop_start
	for ( int i = 2; i < 4; i ++ ) {
		sum += samples[ i ] * weight[i];
	}
	#pragma unroll_loop_end`

	got := UnrollLoops(src)

	assert.Contains(t, got, "samples[ 2 ] * weight[ 2 ]")
	assert.Contains(t, got, "samples[ 3 ] * weight[ 3 ]")
	assert.NotContains(t, got, "[ 1 ]")
	assert.NotContains(t, got, "[ 4 ]")
	assert.NotContains(t, got, "#pragma")
}

func TestUnrollLoopsMultipleRegionsIndependently(t *testing.T) {
	src := "#pragma unroll_loop_start\nfor (int i = 0; i < 2; i++) { a[i]; }\n#pragma unroll_loop_end\n" +
		"mid;\n" +
		"#pragma unroll_loop_start\nfor (int i = 5; i < 7; i++) { b(UNROLLED_LOOP_INDEX); }\n#pragma unroll_loop_end\n"

	got := UnrollLoops(src)

	assert.Equal(t, " a[ 0 ];  a[ 1 ]; \nmid;\n b(5);  b(6); \n", got)
}

func TestUnrollLoopsBodyWithInnerBraces(t *testing.T) {
	src := "#pragma unroll_loop_start\nfor (int i = 0; i < 2; i++) { if (m[i] > 0.) { c += 1.; } }\n#pragma unroll_loop_end"

	got := UnrollLoops(src)

	assert.Contains(t, got, "if (m[ 0 ] > 0.) { c += 1.; }")
	assert.Contains(t, got, "if (m[ 1 ] > 0.) { c += 1.; }")
}

func TestUnrollLoopsEmptyRange(t *testing.T) {
	src := "#pragma unroll_loop_start\nfor (int i = 3; i < 3; i++) { x[i]; }\n#pragma unroll_loop_end\nend"
	assert.Equal(t, "\nend", UnrollLoops(src))
}

func TestUnrollLoopsLeavesMalformedRegions(t *testing.T) {
	for name, src := range map[string]string{
		"no markers":      "for (int i = 0; i < 3; i++) { x[i]; }",
		"start only":      "#pragma unroll_loop_start\nfor (int i = 0; i < 3; i++) { x[i]; }\n",
		"non literal end": "#pragma unroll_loop_start\nfor (int i = 0; i < N; i++) { x[i]; }\n#pragma unroll_loop_end",
		"other variable":  "#pragma unroll_loop_start\nfor (int j = 0; j < 3; j++) { x[j]; }\n#pragma unroll_loop_end",
		"decrement":       "#pragma unroll_loop_start\nfor (int i = 0; i < 3; i--) { x[i]; }\n#pragma unroll_loop_end",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, src, UnrollLoops(src))
		})
	}
}

func TestUnrollLoopsIdempotent(t *testing.T) {
	src := "#pragma unroll_loop_start\nfor (int i=0;i<3;i++){ x[i]=UNROLLED_LOOP_INDEX; }\n#pragma unroll_loop_end\n"
	once := UnrollLoops(src)
	assert.Equal(t, once, UnrollLoops(once))
}
