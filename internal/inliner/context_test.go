package inliner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rngerrors "github.com/jacoelho/rnginline/errors"
)

func TestContextStack(t *testing.T) {
	ctx := NewContext()

	require.NoError(t, ctx.Push("memory://test/a.rng", nil))
	assert.True(t, ctx.InStack("memory://test/a.rng"))
	assert.False(t, ctx.InStack("memory://test/b.rng"))

	require.NoError(t, ctx.Push("memory://test/b.rng", nil))
	err := ctx.Push("memory://test/a.rng", nil)
	code, ok := rngerrors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, rngerrors.ErrCircularInclude, code)

	ctx.Pop()
	assert.False(t, ctx.InStack("memory://test/b.rng"))
	assert.True(t, ctx.InStack("memory://test/a.rng"))
}

func TestContextEmptyURLNeverCycles(t *testing.T) {
	ctx := NewContext()
	require.NoError(t, ctx.Push("", nil))
	require.NoError(t, ctx.Push("", nil))
	assert.False(t, ctx.InStack(""))
}

func TestContextByteCache(t *testing.T) {
	ctx := NewContext()

	_, ok := ctx.Cached("memory://test/a.rng")
	assert.False(t, ok)

	ctx.Store("memory://test/a.rng", []byte("<a/>"))
	data, ok := ctx.Cached("memory://test/a.rng")
	require.True(t, ok)
	assert.Equal(t, "<a/>", string(data))
}

func TestContextPopEmptyPanics(t *testing.T) {
	assert.Panics(t, func() { NewContext().Pop() })
}
