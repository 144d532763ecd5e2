package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"pdfchat/internal/domain"
)

// Corpus is the product of one successful ingestion run: the chunk set
// shared by the answerer and the exam generator, plus its vector index.
type Corpus struct {
	Chunks        []domain.Chunk
	Index         domain.VectorIndex
	DocumentCount int
}

// Pipeline discovers PDF files under a directory, extracts their text,
// chunks it, embeds the chunks and builds the vector index.
type Pipeline struct {
	extractor domain.Extractor
	chunker   domain.Chunker
	embedder  domain.Embedder
	newIndex  func() domain.VectorIndex
}

// NewPipeline wires the ingestion collaborators. newIndex supplies a
// fresh index per run so a failed run never touches an installed one.
func NewPipeline(extractor domain.Extractor, chunker domain.Chunker, embedder domain.Embedder, newIndex func() domain.VectorIndex) *Pipeline {
	return &Pipeline{extractor: extractor, chunker: chunker, embedder: embedder, newIndex: newIndex}
}

// Run executes the full pipeline for one directory. Progress is
// reported after each discrete phase. On any error the returned corpus
// is nil and nothing has been installed anywhere.
func (p *Pipeline) Run(ctx context.Context, dir string, progress func(string)) (*Corpus, error) {
	if progress == nil {
		progress = func(string) {}
	}
	progress(fmt.Sprintf("Processing directory: %s", dir))

	paths, err := findPDFFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, domain.ErrNoDocuments
	}
	progress(fmt.Sprintf("Found %d PDF files.", len(paths)))

	var documents []domain.Document
	for _, path := range paths {
		progress(fmt.Sprintf("Processing file: %s", path))
		doc, err := p.extractor.Extract(path)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}

	progress("Splitting text into chunks...")
	var chunks []domain.Chunk
	for _, doc := range documents {
		cs, err := p.chunker.Chunk(doc)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("documents contained no extractable text")
	}

	progress("Creating embeddings...")
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	if err := p.embedder.Prepare(ctx, texts); err != nil {
		return nil, err
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}

	progress("Creating search index...")
	index := p.newIndex()
	if err := index.Build(chunks, vectors); err != nil {
		return nil, err
	}

	return &Corpus{Chunks: chunks, Index: index, DocumentCount: len(documents)}, nil
}

// findPDFFiles walks dir recursively collecting files with a ".pdf"
// suffix. The match is case-sensitive, like the application this
// replaces; rename files with uppercase extensions before ingesting.
func findPDFFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
