package chunker

import (
	"strings"

	"github.com/google/uuid"

	"pdfchat/internal/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 0

// CharacterChunker splits document text into fixed-size chunks with
// optional overlap, preferring natural break points over hard cuts.
type CharacterChunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewCharacterChunker validates the chunking parameters and returns a
// chunker. Overlap must be strictly smaller than the chunk size.
func NewCharacterChunker(chunkSize, chunkOverlap int) (*CharacterChunker, error) {
	if chunkSize <= 0 {
		return nil, &domain.ConfigError{Field: "chunker.chunk_size", Reason: "must be positive"}
	}
	if chunkOverlap < 0 {
		return nil, &domain.ConfigError{Field: "chunker.chunk_overlap", Reason: "must not be negative"}
	}
	if chunkOverlap >= chunkSize {
		return nil, &domain.ConfigError{Field: "chunker.chunk_overlap", Reason: "must be smaller than chunk_size"}
	}
	return &CharacterChunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Chunk splits the document's full text into chunks, preserving source
// attribution and the rune offset of each chunk in the document text.
func (c *CharacterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	runes := []rune(document.Text())
	length := len(runes)
	if strings.TrimSpace(string(runes)) == "" {
		return nil, nil
	}

	var chunks []domain.Chunk
	start := 0
	idx := 0
	for start < length {
		end := start + c.chunkSize
		if end >= length {
			end = length
		} else {
			end = breakPoint(runes, start, end)
		}
		chunks = append(chunks, domain.Chunk{
			ID:           uuid.New().String(),
			DocumentPath: document.Path,
			Text:         string(runes[start:end]),
			Index:        idx,
			Offset:       start,
		})
		idx++
		if end >= length {
			break
		}
		// Natural breaks can shorten the window; always make progress.
		next := end - c.chunkOverlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks, nil
}

// breakPoint looks for a natural cut (newline, then space) in the last
// quarter of the window and falls back to a hard cut at end.
func breakPoint(runes []rune, start, end int) int {
	floor := end - (end-start)/4
	for i := end - 1; i >= floor; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i >= floor; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}
	return end
}
