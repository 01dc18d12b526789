package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assist-api/internal/application/knowledge"
	"campus-assist-api/internal/domain/entity"
)

func chunk(id string, vec []float32) *entity.DocumentChunk {
	return &entity.DocumentChunk{
		ID:         id,
		SourceType: entity.SourceTypeFAQ,
		Text:       "text for " + id,
		Vector:     vec,
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := NewVectorIndex()
	_, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	assert.ErrorIs(t, err, knowledge.ErrIndexEmpty)
}

func TestSearchOrdersByDescendingSimilarity(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, []*entity.DocumentChunk{
		chunk("exact", []float32{1, 0}),
		chunk("orthogonal", []float32{0, 1}),
		chunk("close", []float32{1, 0.2}),
	}))

	got, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "exact", got[0].Chunk.ID)
	assert.Equal(t, "close", got[1].Chunk.ID)
	assert.Equal(t, "orthogonal", got[2].Chunk.ID)
	assert.InDelta(t, 1.0, float64(got[0].Similarity), 1e-6)
	assert.Greater(t, got[1].Similarity, got[2].Similarity)
}

func TestSearchHonorsTopK(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()
	chunks := make([]*entity.DocumentChunk, 10)
	for i := range chunks {
		chunks[i] = chunk(fmt.Sprintf("c%d", i), []float32{1, float32(i)})
	}
	require.NoError(t, idx.Upsert(ctx, chunks))

	got, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestUpsertSameIDReplaces(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []*entity.DocumentChunk{chunk("a", []float32{1, 0})}))
	updated := chunk("a", []float32{1, 0})
	updated.Text = "updated text"
	require.NoError(t, idx.Upsert(ctx, []*entity.DocumentChunk{updated}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := idx.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "updated text", got[0].Chunk.Text)
}

func TestReplaceAllSwapsWholeIndex(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []*entity.DocumentChunk{
		chunk("old1", []float32{1, 0}),
		chunk("old2", []float32{0, 1}),
	}))
	require.NoError(t, idx.ReplaceAll(ctx, []*entity.DocumentChunk{
		chunk("new1", []float32{1, 0}),
	}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := idx.Search(ctx, []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new1", got[0].Chunk.ID)
}

func TestConcurrentSearchDuringReplaceSeesWholeSnapshots(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	generation := func(gen string, n int) []*entity.DocumentChunk {
		out := make([]*entity.DocumentChunk, n)
		for i := range out {
			out[i] = chunk(fmt.Sprintf("%s_%d", gen, i), []float32{1, float32(i)})
		}
		return out
	}
	require.NoError(t, idx.ReplaceAll(ctx, generation("g1", 4)))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got, err := idx.Search(ctx, []float32{1, 0}, 10)
				if err != nil {
					t.Errorf("search failed: %v", err)
					return
				}
				// all results belong to a single generation
				gen := got[0].Chunk.ID[:2]
				for _, sc := range got {
					if sc.Chunk.ID[:2] != gen {
						t.Errorf("mixed generations in one search: %s vs %s", gen, sc.Chunk.ID)
						return
					}
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		gen := "g1"
		if i%2 == 1 {
			gen = "g2"
		}
		require.NoError(t, idx.ReplaceAll(ctx, generation(gen, 4)))
	}
	wg.Wait()
}
