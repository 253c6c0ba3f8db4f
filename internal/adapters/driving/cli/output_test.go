package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("no width only indents", func(t *testing.T) {
		assert.Equal(t, "  a b c\n  d", wrap("a b c\nd", 0, "  "))
	})

	t.Run("breaks at spaces", func(t *testing.T) {
		got := wrap("the quick brown fox jumps", 12, "  ")
		for _, line := range strings.Split(got, "\n") {
			assert.LessOrEqual(t, len(line), 12)
			assert.True(t, strings.HasPrefix(line, "  "))
		}
		assert.Equal(t, "the quick brown fox jumps", strings.Join(strings.Fields(got), " "))
	})

	t.Run("long word stays whole", func(t *testing.T) {
		assert.Equal(t, "supercalifragilistic", wrap("supercalifragilistic", 5, ""))
	})
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "a b", snippet("a\n\n  b", 10))
	assert.Equal(t, "héllo...", snippet("héllo wörld", 5))
}

func TestTermWidth_NotATerminal(t *testing.T) {
	assert.Equal(t, 0, termWidth(new(bytes.Buffer)))
}
