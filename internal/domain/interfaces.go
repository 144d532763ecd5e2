package domain

import "context"

// Page holds the extracted text of a single PDF page.
type Page struct {
	Number int
	Text   string
}

// Document represents a single PDF file loaded into the system.
type Document struct {
	Path  string
	Pages []Page
}

// Text concatenates the page texts of the document in order.
func (d Document) Text() string {
	var b []byte
	for _, p := range d.Pages {
		b = append(b, p.Text...)
	}
	return string(b)
}

// UnknownSource is reported for chunks without document attribution.
const UnknownSource = "Unknown"

// Chunk is a bounded segment of a document's text, the unit of retrieval.
type Chunk struct {
	ID           string
	DocumentPath string
	Text         string
	Index        int
	Offset       int
}

// Source returns the chunk's attribution, or the UnknownSource sentinel
// when the chunk carries none.
func (c Chunk) Source() string {
	if c.DocumentPath == "" {
		return UnknownSource
	}
	return c.DocumentPath
}

// SearchResult represents a matching chunk with a similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Answer is the result of a retrieval-augmented question.
type Answer struct {
	Text    string
	Sources []string
}

// Extractor turns a PDF file into a document with per-page text.
type Extractor interface {
	Extract(path string) (Document, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into numeric vector representations.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(ctx context.Context, corpus []string) error
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Completer sends a self-contained prompt to a language model and returns
// the generated text. Stateless per call.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorIndex stores (vector, chunk) pairs and supports similarity search.
// Build replaces any previously indexed contents.
type VectorIndex interface {
	Build(chunks []Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]SearchResult, error)
	Size() int
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
