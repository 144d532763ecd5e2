package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_ShortTextReturnedAsIs(t *testing.T) {
	s := NewFrequencySummarizer()
	out, err := s.Summarize("no sentence punctuation here", 3)
	require.NoError(t, err)
	assert.Equal(t, "no sentence punctuation here", out)
}

func TestSummarize_LimitsSentenceCount(t *testing.T) {
	s := NewFrequencySummarizer()
	text := "Networks route packets. Routers forward packets between networks. " +
		"Cooking is unrelated entirely. Packets carry network payloads. " +
		"Another stray remark sits here. Network routing uses packet headers."
	out, err := s.Summarize(text, 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, strings.Count(out, "."), 2)
	assert.NotEmpty(t, out)
}

func TestSummarize_KeepsOriginalOrder(t *testing.T) {
	s := NewFrequencySummarizer()
	text := "Alpha systems process data quickly. Beta systems process data slowly. " +
		"Gamma systems process data reliably."
	out, err := s.Summarize(text, 3)
	require.NoError(t, err)
	a := strings.Index(out, "Alpha")
	b := strings.Index(out, "Beta")
	g := strings.Index(out, "Gamma")
	require.GreaterOrEqual(t, a, 0)
	require.GreaterOrEqual(t, b, 0)
	require.GreaterOrEqual(t, g, 0)
	assert.Less(t, a, b)
	assert.Less(t, b, g)
}
