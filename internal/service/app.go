package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pdfchat/internal/domain"
	"pdfchat/internal/exam"
	"pdfchat/internal/ingest"
)

// answerTemplate is the retrieval-augmented QA prompt. Each call is
// self-contained; no conversation memory is kept.
const answerTemplate = `Use the following information to answer the user's question.
If you don't find sufficient information to answer, say that you don't have enough information.

Information:
%s

Question: %s

Answer:`

// triggerPhrases start the exam simulation instead of a normal answer.
var triggerPhrases = []string{"simulazione di esame", "exam simulation"}

// IsExamTrigger reports whether the query requests the exam simulation.
// The check is case-insensitive and runs before any retrieval work.
func IsExamTrigger(query string) bool {
	q := strings.ToLower(query)
	for _, phrase := range triggerPhrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

// IngestSummary reports the outcome of a successful ingestion.
type IngestSummary struct {
	DocumentCount int
	ChunkCount    int
	Overview      string
}

// App holds all application state: the wired collaborators, the corpus
// and index installed by the last successful ingest, and the live exam
// session. Every operation serializes on one mutex; no two operations
// mutate shared state concurrently.
type App struct {
	mu sync.Mutex

	pipeline   *ingest.Pipeline
	embedder   domain.Embedder
	completer  domain.Completer
	summarizer domain.Summarizer
	generator  *exam.Generator

	topK             int
	summarySentences int

	corpus  *ingest.Corpus
	session *exam.Session
}

// Deps bundles the collaborators an App needs.
type Deps struct {
	Pipeline   *ingest.Pipeline
	Embedder   domain.Embedder
	Completer  domain.Completer
	Summarizer domain.Summarizer
	Generator  *exam.Generator

	TopK             int
	SummarySentences int
}

// NewApp creates an empty application state. It becomes ready after the
// first successful Ingest.
func NewApp(deps Deps) *App {
	topK := deps.TopK
	if topK <= 0 {
		topK = 4
	}
	sentences := deps.SummarySentences
	if sentences <= 0 {
		sentences = 5
	}
	return &App{
		pipeline:         deps.Pipeline,
		embedder:         deps.Embedder,
		completer:        deps.Completer,
		summarizer:       deps.Summarizer,
		generator:        deps.Generator,
		topK:             topK,
		summarySentences: sentences,
	}
}

// Ready reports whether a corpus has been installed.
func (a *App) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.corpus != nil
}

// Ingest runs the full pipeline over dir and, only on success, installs
// the new corpus and index in one step. A failed run leaves any
// previously installed corpus untouched.
func (a *App) Ingest(ctx context.Context, dir string, progress func(string)) (IngestSummary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	corpus, err := a.pipeline.Run(ctx, dir, progress)
	if err != nil {
		return IngestSummary{}, err
	}

	overview := ""
	if a.summarizer != nil {
		texts := make([]string, len(corpus.Chunks))
		for i, c := range corpus.Chunks {
			texts[i] = c.Text
		}
		// Overview failures degrade to no overview, never a failed ingest.
		if s, err := a.summarizer.Summarize(strings.Join(texts, "\n"), a.summarySentences); err == nil {
			overview = s
		}
	}

	a.corpus = corpus
	a.session = nil
	return IngestSummary{
		DocumentCount: corpus.DocumentCount,
		ChunkCount:    len(corpus.Chunks),
		Overview:      overview,
	}, nil
}

// Ask answers a free-form question: embed the query, retrieve the top-k
// most similar chunks, assemble their text into the prompt context and
// complete. The answer carries the deduplicated source attributions of
// the retrieved chunks, in similarity rank order.
func (a *App) Ask(ctx context.Context, query string) (domain.Answer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.corpus == nil {
		return domain.Answer{}, domain.ErrNotReady
	}

	vectors, err := a.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return domain.Answer{}, err
	}
	results, err := a.corpus.Index.Search(vectors[0], a.topK)
	if err != nil {
		return domain.Answer{}, err
	}

	parts := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		parts = append(parts, r.Chunk.Text)
		src := r.Chunk.Source()
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}

	prompt := fmt.Sprintf(answerTemplate, strings.Join(parts, " "), query)
	text, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return domain.Answer{}, err
	}
	return domain.Answer{Text: text, Sources: sources}, nil
}

// StartExam generates the question list from the installed corpus and
// opens a grading session. Returns the number of generated questions.
func (a *App) StartExam(ctx context.Context, progress func(string)) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.corpus == nil {
		return 0, domain.ErrNotReady
	}
	session := exam.NewSession()
	questions := a.generator.Generate(ctx, a.corpus.Chunks, progress)
	session.Begin(questions)
	a.session = session
	return len(questions), nil
}

// ExamActive reports whether a session is awaiting answers.
func (a *App) ExamActive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil && a.session.State() == exam.StateAwaitingAnswer
}

// CurrentQuestion returns the presentation text of the question
// awaiting an answer, its 1-based number and the session total.
func (a *App) CurrentQuestion() (string, int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	q, idx, total := a.session.Current()
	return exam.DisplayText(q.Text), idx + 1, total
}

// SubmitAnswer grades one exam input.
func (a *App) SubmitAnswer(input string) exam.Step {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Submit(input)
}

// FinishExam returns the final result and resets the session, making
// plain question answering available again.
func (a *App) FinishExam() exam.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	res := a.session.Result()
	a.session.Reset()
	a.session = nil
	return res
}
