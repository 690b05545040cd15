package fake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/arcaluminis-ssgi/internal/render"
)

func TestDriverAverages(t *testing.T) {
	d := &Driver{LogEvery: 1}
	require.NoError(t, d.Write([]render.Color{{R: 1}, {R: 0, B: 1}}))
	require.NoError(t, d.Write(nil))
	assert.Equal(t, 2, d.Count)
	assert.Equal(t, render.Color{R: 0.5, B: 0.5}, d.Last)
}
