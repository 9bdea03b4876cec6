package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Inline
		want string
	}{
		{
			name: "code and message only",
			err:  New(ErrParse, "not well-formed"),
			want: "[rng-parse] not well-formed",
		},
		{
			name: "with uri and line",
			err:  New(ErrResourceNotFound, "missing").WithURI("file:/a.rng").WithLine(3),
			want: "[rng-resource-not-found] missing (url: file:/a.rng) (line 3)",
		},
		{
			name: "with component name",
			err:  New(ErrOverrideTargetNotFound, "no such define").WithName("title"),
			want: "[rng-override-target-not-found] no such define (name: title)",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestErrorCycleChain(t *testing.T) {
	err := New(ErrCircularInclude, "schema includes itself").WithURI("file:/a.rng")
	err.Cycle = []string{"file:/a.rng", "file:/b.rng (via <include> at line 4)", "file:/a.rng"}

	msg := err.Error()
	assert.Contains(t, msg, "cycle: file:/a.rng")
	assert.Contains(t, msg, "-> file:/b.rng (via <include> at line 4)")
}

func TestWithReturnsCopies(t *testing.T) {
	base := New(ErrMalformedURI, "bad uri")
	annotated := base.WithURI("file:/x.rng").WithLine(7)

	assert.Empty(t, base.URI)
	assert.Zero(t, base.Line)
	assert.Equal(t, "file:/x.rng", annotated.URI)
	assert.Equal(t, 7, annotated.Line)
	assert.Equal(t, base.Code, annotated.Code)
}

func TestAsInlineThroughWrapping(t *testing.T) {
	inner := Newf(ErrNoHandler, "no handler for %s", "weird:x")
	wrapped := fmt.Errorf("inlining failed: %w", inner)

	got, ok := AsInline(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrNoHandler, got.Code)

	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrNoHandler, code)
}

func TestCodeOfForeignError(t *testing.T) {
	_, ok := CodeOf(fmt.Errorf("plain"))
	assert.False(t, ok)

	_, ok = CodeOf(nil)
	assert.False(t, ok)
}
