package knowledge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByRunesShortTextStaysWhole(t *testing.T) {
	out := splitByRunes("short text", 500, 50)
	require.Len(t, out, 1)
	assert.Equal(t, "short text", out[0])
}

func TestSplitByRunesEmptyText(t *testing.T) {
	assert.Nil(t, splitByRunes("", 500, 50))
	assert.Nil(t, splitByRunes("   \n\t ", 500, 50))
}

func TestSplitByRunesWindowsOverlap(t *testing.T) {
	text := strings.Repeat("a", 8) + strings.Repeat("b", 8)
	out := splitByRunes(text, 10, 4)

	require.Len(t, out, 2)
	assert.Equal(t, "aaaaaaaabb", out[0])
	// second window starts 6 runes in, repeating the last 4 of the first
	assert.Equal(t, "aabbbbbbbb", out[1])
}

func TestSplitByRunesMultibyteSafe(t *testing.T) {
	text := strings.Repeat("क", 12)
	out := splitByRunes(text, 5, 1)

	for _, chunk := range out {
		for _, r := range chunk {
			assert.Equal(t, 'क', r)
		}
	}
	assert.LessOrEqual(t, len([]rune(out[0])), 5)
}

func TestSplitByRunesDegenerateOverlap(t *testing.T) {
	// overlap >= size must not loop forever
	text := strings.Repeat("x", 30)
	out := splitByRunes(text, 10, 10)
	require.NotEmpty(t, out)
	assert.Equal(t, 3, len(out))
}
