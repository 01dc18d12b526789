// Package memory provides in-process fallbacks for the vector index and
// conversation store, used in tests and when the external backends are
// not configured.
package memory

import (
	"context"
	"math"
	"sort"
	"sync/atomic"

	"campus-assist-api/internal/application/knowledge"
	"campus-assist-api/internal/domain/entity"
)

// VectorIndex is an in-process cosine-similarity index. The chunk set
// lives in an immutable snapshot behind an atomic pointer: searches read
// whatever snapshot was current when they started, and ReplaceAll swaps
// the pointer in one step, so no query ever sees a half-built index.
type VectorIndex struct {
	snapshot atomic.Pointer[indexSnapshot]
}

type indexSnapshot struct {
	chunks []entity.DocumentChunk
	byID   map[string]int
}

// NewVectorIndex creates an empty index.
func NewVectorIndex() *VectorIndex {
	idx := &VectorIndex{}
	idx.snapshot.Store(&indexSnapshot{byID: map[string]int{}})
	return idx
}

var _ knowledge.VectorIndex = (*VectorIndex)(nil)

// EnsureCollection is a no-op for the in-memory index.
func (i *VectorIndex) EnsureCollection(ctx context.Context) error {
	return nil
}

// Upsert inserts chunks, replacing same-id entries, by building a new
// snapshot and swapping it in.
func (i *VectorIndex) Upsert(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for {
		old := i.snapshot.Load()

		next := &indexSnapshot{
			chunks: make([]entity.DocumentChunk, len(old.chunks), len(old.chunks)+len(chunks)),
			byID:   make(map[string]int, len(old.byID)+len(chunks)),
		}
		copy(next.chunks, old.chunks)
		for id, pos := range old.byID {
			next.byID[id] = pos
		}

		for _, c := range chunks {
			if c == nil || c.ID == "" {
				continue
			}
			if pos, ok := next.byID[c.ID]; ok {
				next.chunks[pos] = *c
				continue
			}
			next.byID[c.ID] = len(next.chunks)
			next.chunks = append(next.chunks, *c)
		}

		if i.snapshot.CompareAndSwap(old, next) {
			return nil
		}
	}
}

// ReplaceAll swaps the whole index for chunks in one atomic step.
func (i *VectorIndex) ReplaceAll(ctx context.Context, chunks []*entity.DocumentChunk) error {
	next := &indexSnapshot{
		chunks: make([]entity.DocumentChunk, 0, len(chunks)),
		byID:   make(map[string]int, len(chunks)),
	}
	for _, c := range chunks {
		if c == nil || c.ID == "" {
			continue
		}
		if pos, ok := next.byID[c.ID]; ok {
			next.chunks[pos] = *c
			continue
		}
		next.byID[c.ID] = len(next.chunks)
		next.chunks = append(next.chunks, *c)
	}
	i.snapshot.Store(next)
	return nil
}

// Search returns up to topK chunks by descending cosine similarity.
func (i *VectorIndex) Search(ctx context.Context, vector []float32, topK int) ([]entity.ScoredChunk, error) {
	snap := i.snapshot.Load()
	if len(snap.chunks) == 0 {
		return nil, knowledge.ErrIndexEmpty
	}
	if topK <= 0 {
		topK = 3
	}

	scored := make([]entity.ScoredChunk, 0, len(snap.chunks))
	for _, c := range snap.chunks {
		scored = append(scored, entity.ScoredChunk{
			Chunk:      c,
			Similarity: cosineSimilarity(vector, c.Vector),
		})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Similarity > scored[b].Similarity
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Count returns the number of chunks in the current snapshot.
func (i *VectorIndex) Count(ctx context.Context) (int64, error) {
	return int64(len(i.snapshot.Load().chunks)), nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
		normA += float64(a[n]) * float64(a[n])
		normB += float64(b[n]) * float64(b[n])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
