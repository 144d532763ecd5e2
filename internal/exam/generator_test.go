package exam

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/domain"
)

// fakeCompleter returns canned question texts, optionally failing on
// selected calls.
type fakeCompleter struct {
	calls   int
	prompts []string
	failOn  map[int]bool
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.failOn[f.calls] {
		return "", errors.New("model unavailable")
	}
	return fmt.Sprintf("Domanda %d?\na) uno\nb) due\nc) tre\nd) quattro\nRisposta corretta: a", f.calls), nil
}

func corpus(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{ID: fmt.Sprintf("c%d", i), Text: fmt.Sprintf("chunk %d", i)}
	}
	return chunks
}

func TestGenerate_OneQuestionPerGroup(t *testing.T) {
	comp := &fakeCompleter{}
	g := NewGenerator(comp, 3, 2, rand.New(rand.NewSource(1)))

	questions := g.Generate(context.Background(), corpus(10), nil)
	require.Len(t, questions, 3)
	assert.Equal(t, 3, comp.calls)
	for _, q := range questions {
		_, err := ParseCorrectAnswer(q.Text)
		assert.NoError(t, err)
	}
}

func TestGenerate_SmallCorpusUsesAllChunks(t *testing.T) {
	comp := &fakeCompleter{}
	g := NewGenerator(comp, 30, 2, rand.New(rand.NewSource(1)))

	// 5 chunks < 30*2: everything is sampled, in 3 groups (last partial).
	questions := g.Generate(context.Background(), corpus(5), nil)
	assert.Len(t, questions, 3)
}

func TestGenerate_SamplesWithoutReplacement(t *testing.T) {
	comp := &fakeCompleter{}
	g := NewGenerator(comp, 2, 2, rand.New(rand.NewSource(42)))

	g.Generate(context.Background(), corpus(20), nil)
	require.Len(t, comp.prompts, 2)

	// No chunk text may appear in more than one prompt.
	counts := map[string]int{}
	for _, p := range comp.prompts {
		for i := 0; i < 20; i++ {
			needle := fmt.Sprintf("chunk %d", i)
			if strings.Contains(p, needle) {
				counts[needle]++
			}
		}
	}
	for needle, n := range counts {
		assert.Equal(t, 1, n, "%s sampled more than once", needle)
	}
}

func TestGenerate_SkipsFailedGroups(t *testing.T) {
	comp := &fakeCompleter{failOn: map[int]bool{2: true}}
	g := NewGenerator(comp, 3, 2, rand.New(rand.NewSource(1)))

	var messages []string
	questions := g.Generate(context.Background(), corpus(10), func(s string) { messages = append(messages, s) })

	assert.Len(t, questions, 2)
	assert.Equal(t, 3, comp.calls)

	var sawSkip bool
	for _, msg := range messages {
		if strings.Contains(msg, "generation failed") {
			sawSkip = true
		}
	}
	assert.True(t, sawSkip, "expected a skip report in progress messages")
}

func TestGenerate_PromptContainsChunkTextAndFormat(t *testing.T) {
	comp := &fakeCompleter{}
	g := NewGenerator(comp, 1, 2, rand.New(rand.NewSource(7)))

	g.Generate(context.Background(), corpus(2), nil)
	require.Len(t, comp.prompts, 1)
	p := comp.prompts[0]
	assert.Contains(t, p, "chunk 0")
	assert.Contains(t, p, "chunk 1")
	assert.Contains(t, p, "Risposta corretta:")
	assert.Contains(t, p, "scelta multipla")
}
