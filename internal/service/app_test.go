package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/chunker"
	"pdfchat/internal/domain"
	"pdfchat/internal/exam"
	"pdfchat/internal/ingest"
	"pdfchat/internal/vectorstore/memory"
)

type fakeExtractor struct{}

func (fakeExtractor) Extract(path string) (domain.Document, error) {
	text := fmt.Sprintf("Contents of %s. ", filepath.Base(path))
	return domain.Document{Path: path, Pages: []domain.Page{{Number: 1, Text: strings.Repeat(text, 8)}}}, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Name() string { return "fake" }

func (fakeEmbedder) Prepare(ctx context.Context, corpus []string) error { return nil }

func (fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1}
	}
	return out, nil
}

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "Domanda?\na) uno\nb) due\nc) tre\nd) quattro\nRisposta corretta: a", nil
}

// stripChunker removes source attribution, to exercise the Unknown
// sentinel in answer sources.
type stripChunker struct{ inner domain.Chunker }

func (s stripChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	chunks, err := s.inner.Chunk(document)
	for i := range chunks {
		chunks[i].DocumentPath = ""
	}
	return chunks, err
}

func newTestApp(t *testing.T, comp *fakeCompleter, stripSources bool) *App {
	t.Helper()
	ch, err := chunker.NewCharacterChunker(60, 0)
	require.NoError(t, err)
	var c domain.Chunker = ch
	if stripSources {
		c = stripChunker{inner: ch}
	}
	pipeline := ingest.NewPipeline(fakeExtractor{}, c, fakeEmbedder{}, func() domain.VectorIndex {
		return memory.NewIndex()
	})
	gen := exam.NewGenerator(comp, 2, 2, rand.New(rand.NewSource(1)))
	return NewApp(Deps{
		Pipeline:  pipeline,
		Embedder:  fakeEmbedder{},
		Completer: comp,
		Generator: gen,
		TopK:      4,
	})
}

func pdfDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o644))
	}
	return dir
}

func TestIsExamTrigger(t *testing.T) {
	assert.True(t, IsExamTrigger("simulazione di esame"))
	assert.True(t, IsExamTrigger("exam simulation"))
	assert.True(t, IsExamTrigger("Avvia una SIMULAZIONE DI ESAME ora"))
	assert.True(t, IsExamTrigger("please start an Exam Simulation"))
	assert.False(t, IsExamTrigger("what is an exam?"))
	assert.False(t, IsExamTrigger("simulation of something else"))
}

func TestAsk_BeforeIngest(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, false)
	_, err := app.Ask(context.Background(), "anything")
	require.ErrorIs(t, err, domain.ErrNotReady)
}

func TestIngestAndAsk(t *testing.T) {
	comp := &fakeCompleter{reply: "The answer is 42."}
	app := newTestApp(t, comp, false)

	summary, err := app.Ingest(context.Background(), pdfDir(t, "a.pdf", "b.pdf"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.DocumentCount)
	assert.Greater(t, summary.ChunkCount, 0)
	assert.True(t, app.Ready())

	answer, err := app.Ask(context.Background(), "what are the contents?")
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", answer.Text)

	// Sources are deduplicated document paths of the retrieved chunks.
	require.NotEmpty(t, answer.Sources)
	seen := map[string]bool{}
	for _, s := range answer.Sources {
		assert.False(t, seen[s], "duplicate source %s", s)
		seen[s] = true
		assert.True(t, strings.HasSuffix(s, ".pdf"))
	}

	// The rendered prompt embeds retrieved context and the question.
	require.NotEmpty(t, comp.prompts)
	last := comp.prompts[len(comp.prompts)-1]
	assert.Contains(t, last, "Contents of")
	assert.Contains(t, last, "what are the contents?")
}

func TestAsk_UnknownSourceSentinel(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{reply: "ok"}, true)
	_, err := app.Ingest(context.Background(), pdfDir(t, "a.pdf"), nil)
	require.NoError(t, err)

	answer, err := app.Ask(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, []string{domain.UnknownSource}, answer.Sources)
}

func TestAsk_CompletionFailureLeavesStateUsable(t *testing.T) {
	comp := &fakeCompleter{}
	app := newTestApp(t, comp, false)
	_, err := app.Ingest(context.Background(), pdfDir(t, "a.pdf"), nil)
	require.NoError(t, err)

	comp.err = errors.New("quota exceeded")
	_, err = app.Ask(context.Background(), "q1")
	require.Error(t, err)

	comp.err = nil
	comp.reply = "fine now"
	answer, err := app.Ask(context.Background(), "q2")
	require.NoError(t, err)
	assert.Equal(t, "fine now", answer.Text)
}

func TestIngest_FailureKeepsPreviousCorpus(t *testing.T) {
	comp := &fakeCompleter{reply: "ok"}
	app := newTestApp(t, comp, false)

	_, err := app.Ingest(context.Background(), pdfDir(t, "a.pdf"), nil)
	require.NoError(t, err)

	// Re-ingesting an empty directory fails and must not unload the
	// previously installed corpus.
	_, err = app.Ingest(context.Background(), t.TempDir(), nil)
	require.ErrorIs(t, err, domain.ErrNoDocuments)
	assert.True(t, app.Ready())

	_, err = app.Ask(context.Background(), "still working?")
	require.NoError(t, err)
}

func TestExamFlowThroughService(t *testing.T) {
	comp := &fakeCompleter{}
	app := newTestApp(t, comp, false)
	_, err := app.Ingest(context.Background(), pdfDir(t, "a.pdf"), nil)
	require.NoError(t, err)

	count, err := app.StartExam(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	assert.True(t, app.ExamActive())

	text, number, total := app.CurrentQuestion()
	assert.Equal(t, 1, number)
	assert.Equal(t, 2, total)
	assert.NotContains(t, text, "Risposta corretta")

	step := app.SubmitAnswer("a")
	assert.Equal(t, exam.OutcomeCorrect, step.Outcome)
	step = app.SubmitAnswer("b")
	assert.Equal(t, exam.OutcomeWrong, step.Outcome)
	assert.True(t, step.Finished)

	res := app.FinishExam()
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Correct)
	assert.False(t, app.ExamActive())

	// Plain answering is available again after the exam.
	_, err = app.Ask(context.Background(), "back to questions")
	require.NoError(t, err)
}

func TestStartExam_BeforeIngest(t *testing.T) {
	app := newTestApp(t, &fakeCompleter{}, false)
	_, err := app.StartExam(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrNotReady)
}
