package knowledge

import (
	"context"

	"campus-assist-api/internal/domain/entity"
)

// VectorIndex is the application layer's minimal dependency on vector
// storage and retrieval. Implementations live in infrastructure
// (Milvus, in-memory).
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	// Upsert inserts chunks, replacing any chunk with the same id.
	Upsert(ctx context.Context, chunks []*entity.DocumentChunk) error
	// Search returns up to topK chunks ordered by descending similarity.
	// Similarity is cosine similarity: larger means closer, 1 is an
	// exact match. Returns ErrIndexEmpty when nothing has been ingested.
	Search(ctx context.Context, vector []float32, topK int) ([]entity.ScoredChunk, error)
	// ReplaceAll atomically swaps the whole index for chunks. Queries
	// running during the swap see either the old or the new index,
	// never a mix.
	ReplaceAll(ctx context.Context, chunks []*entity.DocumentChunk) error
	Count(ctx context.Context) (int64, error)
}
