package memory

import (
	"errors"
	"math"
	"sort"
	"sync"

	"pdfchat/internal/domain"
)

// Index is an in-memory vector index using brute-force cosine
// similarity. Build replaces prior contents; ties in Search are broken
// by insertion order, so results are deterministic.
type Index struct {
	mu      sync.RWMutex
	vectors [][]float64
	chunks  []domain.Chunk
}

// NewIndex creates an empty index.
func NewIndex() *Index { return &Index{} }

// Build indexes the given (chunk, vector) pairs, replacing any
// previously indexed contents in one step.
func (ix *Index) Build(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	dim := 0
	for _, v := range vectors {
		if len(v) == 0 {
			return errors.New("empty vector")
		}
		if dim == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return errors.New("vector dimension mismatch")
		}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = append([]domain.Chunk(nil), chunks...)
	ix.vectors = append([][]float64(nil), vectors...)
	return nil
}

// Search returns the topK most similar entries, score descending. The
// result length is min(topK, index size).
func (ix *Index) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if len(ix.vectors) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if topK < 1 {
		topK = 1
	}
	scores := make([]float64, len(ix.vectors))
	for i := range ix.vectors {
		scores[i] = cosine(ix.vectors[i], vector)
	}
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	// Stable keeps insertion order among equal scores.
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for i := 0; i < topK; i++ {
		j := idxs[i]
		results = append(results, domain.SearchResult{Chunk: ix.chunks[j], Score: scores[j]})
	}
	return results, nil
}

// Size returns the number of indexed entries.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
