package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/domain"
)

func chunk(id string) domain.Chunk {
	return domain.Chunk{ID: id, DocumentPath: "/docs/" + id + ".pdf", Text: "text " + id}
}

func TestBuild_LengthMismatch(t *testing.T) {
	ix := NewIndex()
	err := ix.Build([]domain.Chunk{chunk("a")}, nil)
	require.Error(t, err)
}

func TestSearch_EmptyIndex(t *testing.T) {
	ix := NewIndex()
	_, err := ix.Search([]float64{1, 0}, 3)
	require.ErrorIs(t, err, domain.ErrEmptyIndex)
}

func TestSearch_SoleEntryRoundTrip(t *testing.T) {
	ix := NewIndex()
	v := []float64{0.3, 0.4, 0.5}
	require.NoError(t, ix.Build([]domain.Chunk{chunk("only")}, [][]float64{v}))

	results, err := ix.Search(v, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "only", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSearch_DescendingOrderAndTruncation(t *testing.T) {
	ix := NewIndex()
	chunks := []domain.Chunk{chunk("far"), chunk("near"), chunk("mid")}
	vectors := [][]float64{
		{0, 1},
		{1, 0},
		{1, 1},
	}
	require.NoError(t, ix.Build(chunks, vectors))

	results, err := ix.Search([]float64{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Chunk.ID)
	assert.Equal(t, "mid", results[1].Chunk.ID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)

	// k larger than the index size returns everything.
	all, err := ix.Search([]float64{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSearch_Deterministic(t *testing.T) {
	ix := NewIndex()
	chunks := []domain.Chunk{chunk("a"), chunk("b"), chunk("c"), chunk("d")}
	vectors := [][]float64{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
		{0.5, 0.5, 0},
	}
	require.NoError(t, ix.Build(chunks, vectors))

	first, err := ix.Search([]float64{1, 0, 0}, 4)
	require.NoError(t, err)
	second, err := ix.Search([]float64{1, 0, 0}, 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearch_TiesBrokenByInsertionOrder(t *testing.T) {
	ix := NewIndex()
	chunks := []domain.Chunk{chunk("first"), chunk("second"), chunk("third")}
	same := []float64{1, 1, 0}
	require.NoError(t, ix.Build(chunks, [][]float64{same, same, same}))

	results, err := ix.Search([]float64{1, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Chunk.ID)
	assert.Equal(t, "second", results[1].Chunk.ID)
	assert.Equal(t, "third", results[2].Chunk.ID)
}

func TestBuild_ReplacesPriorContents(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.Build([]domain.Chunk{chunk("old")}, [][]float64{{1, 0}}))
	require.Equal(t, 1, ix.Size())

	require.NoError(t, ix.Build([]domain.Chunk{chunk("new1"), chunk("new2")}, [][]float64{{1, 0}, {0, 1}}))
	assert.Equal(t, 2, ix.Size())

	results, err := ix.Search([]float64{1, 0}, 5)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "old", r.Chunk.ID)
	}
}
