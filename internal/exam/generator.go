package exam

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"pdfchat/internal/domain"
)

// generationTemplate asks for a single Italian multiple-choice question
// over the supplied context, with a machine-readable answer marker.
const generationTemplate = `Crea una domanda d'esame a scelta multipla basata sulle seguenti informazioni.
La domanda deve avere 4 possibili risposte, di cui solo una è corretta.

Informazioni:
%s

Istruzioni:
1. Non creare domande sugli autori dei documenti o su chi ha scritto il testo.
2. Concentrati sul contenuto e sui concetti presenti nelle informazioni fornite.
3. Evita domande su dettagli bibliografici o editoriali.
4. Non menzionare o fare domande sui nomi che potrebbero essere gli autori di un PDF.

Formato della risposta:
[Domanda]
a) [Opzione A]
b) [Opzione B]
c) [Opzione C]
d) [Opzione D]
Risposta corretta: [a/b/c/d]

Assicurati che la "Risposta corretta:" sia una singola lettera minuscola (a, b, c, o d) senza spazi aggiuntivi.

Crea una domanda d'esame in italiano:`

// Generator samples chunk groups from the corpus and turns each group
// into one multiple-choice question via the completion service.
type Generator struct {
	completer         domain.Completer
	numQuestions      int
	chunksPerQuestion int
	rng               *rand.Rand
}

// NewGenerator creates a question generator. A nil rng gets a
// time-seeded source; tests inject a fixed seed.
func NewGenerator(completer domain.Completer, numQuestions, chunksPerQuestion int, rng *rand.Rand) *Generator {
	if numQuestions <= 0 {
		numQuestions = 30
	}
	if chunksPerQuestion <= 0 {
		chunksPerQuestion = 2
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		completer:         completer,
		numQuestions:      numQuestions,
		chunksPerQuestion: chunksPerQuestion,
		rng:               rng,
	}
}

// Generate samples without replacement up to numQuestions×chunksPerQuestion
// chunks, partitions them sequentially, and asks the completion service
// for one question per group. A group whose generation fails is reported
// via progress and skipped; the rest of the batch continues.
func (g *Generator) Generate(ctx context.Context, chunks []domain.Chunk, progress func(string)) []Question {
	if progress == nil {
		progress = func(string) {}
	}
	selected := g.sample(chunks)

	var questions []Question
	for start := 0; start < len(selected); start += g.chunksPerQuestion {
		end := start + g.chunksPerQuestion
		if end > len(selected) {
			end = len(selected)
		}
		texts := make([]string, 0, end-start)
		for _, c := range selected[start:end] {
			texts = append(texts, c.Text)
		}
		prompt := fmt.Sprintf(generationTemplate, strings.Join(texts, " "))

		text, err := g.completer.Complete(ctx, prompt)
		if err != nil {
			progress(fmt.Sprintf("Skipping a question, generation failed: %v", err))
			continue
		}
		questions = append(questions, Question{Text: text})
		progress(fmt.Sprintf("Question %d generated", len(questions)))
	}
	return questions
}

// sample picks min(numQuestions×chunksPerQuestion, len(chunks)) chunks
// without replacement.
func (g *Generator) sample(chunks []domain.Chunk) []domain.Chunk {
	want := g.numQuestions * g.chunksPerQuestion
	if want > len(chunks) {
		want = len(chunks)
	}
	perm := g.rng.Perm(len(chunks))
	selected := make([]domain.Chunk, 0, want)
	for _, idx := range perm[:want] {
		selected = append(selected, chunks[idx])
	}
	return selected
}
