package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func textCandidates(texts ...string) []Candidate {
	out := make([]Candidate, 0, len(texts))
	for i, text := range texts {
		out = append(out, Candidate{ContentID: uint64(i + 1), Text: text})
	}
	return out
}

func TestPackStopsAtFirstItemThatDoesNotFit(t *testing.T) {
	ten := strings.Repeat("x", 10)
	res := Pack(textCandidates(ten, ten, ten), 25, " ", "")

	assert.Equal(t, 2, res.ItemsUsed)
	assert.Equal(t, 3, res.ItemsAvailable)
	assert.True(t, res.Truncated)
	assert.Equal(t, ten+" "+ten, res.Text)
	assert.Equal(t, 21, res.CharCount)
	assert.Equal(t, 25, res.CharLimit)
}

func TestPackDoesNotSkipAheadToSmallerItems(t *testing.T) {
	res := Pack(textCandidates("aaaa", strings.Repeat("b", 20), "c"), 10, "-", "")

	assert.Equal(t, "aaaa", res.Text)
	assert.Equal(t, 1, res.ItemsUsed)
	assert.True(t, res.Truncated)
}

func TestPackCountsSuffix(t *testing.T) {
	res := Pack(textCandidates("abcde", "fghij"), 12, "|", "!")
	assert.Equal(t, "abcde|fghij!", res.Text)
	assert.False(t, res.Truncated)

	res = Pack(textCandidates("abcde", "fghij"), 11, "|", "!")
	assert.Equal(t, "abcde!", res.Text)
	assert.True(t, res.Truncated)
}

func TestPackCountsRunesNotBytes(t *testing.T) {
	res := Pack(textCandidates("Ääää", "Öööö"), 9, " ", "")
	assert.Equal(t, 2, res.ItemsUsed)
	assert.Equal(t, 9, res.CharCount)
}

func TestPackEmpty(t *testing.T) {
	res := Pack(nil, 100, "\n\n", "")
	assert.Equal(t, "", res.Text)
	assert.Zero(t, res.ItemsUsed)
	assert.False(t, res.Truncated)

	res = Pack(textCandidates("   ", ""), 100, "\n\n", "")
	assert.Equal(t, "", res.Text)
	assert.Zero(t, res.ItemsAvailable)
}

func TestPackNothingFits(t *testing.T) {
	res := Pack(textCandidates("too long for this"), 5, " ", "")
	assert.Equal(t, "", res.Text)
	assert.Zero(t, res.CharCount)
	assert.True(t, res.Truncated)
}

func TestPackTrimsText(t *testing.T) {
	res := Pack(textCandidates("  one  ", "two\n"), 100, ",", "")
	assert.Equal(t, "one,two", res.Text)
}
