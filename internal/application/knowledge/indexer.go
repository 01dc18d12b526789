package knowledge

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"

	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/pkg/logger"
	"campus-assist-api/pkg/metrics"
)

const defaultEmbeddingBatch = 64

// Indexer embeds chunks and writes them into the vector index.
type Indexer struct {
	embedder embedding.Embedder
	index    VectorIndex
	loader   *Loader

	embeddingBatchSize int
}

func NewIndexer(embedder embedding.Embedder, index VectorIndex, loader *Loader, embeddingBatchSize int) *Indexer {
	bs := embeddingBatchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Indexer{
		embedder:           embedder,
		index:              index,
		loader:             loader,
		embeddingBatchSize: bs,
	}
}

func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.index != nil
}

// Rebuild loads the corpus from disk, embeds it, and atomically swaps
// the whole index. Returns the number of chunks in the new index.
func (i *Indexer) Rebuild(ctx context.Context) (int, error) {
	if !i.Enabled() {
		return 0, ErrVectorDisabled
	}
	if err := i.index.EnsureCollection(ctx); err != nil {
		return 0, err
	}

	chunks, err := i.loader.Load()
	if err != nil {
		metrics.KnowledgeReloadTotal.WithLabelValues("error").Inc()
		return 0, err
	}
	if len(chunks) == 0 {
		metrics.KnowledgeReloadTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("no documents found in knowledge base")
	}

	if err := i.embedChunks(ctx, chunks); err != nil {
		metrics.KnowledgeReloadTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	if err := i.index.ReplaceAll(ctx, chunks); err != nil {
		metrics.KnowledgeReloadTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.KnowledgeReloadTotal.WithLabelValues("ok").Inc()
	metrics.KnowledgeChunks.Set(float64(len(chunks)))
	logger.Info(ctx, "knowledge index rebuilt", "chunks", len(chunks))
	return len(chunks), nil
}

// Ingest embeds chunks and upserts them without replacing the index.
func (i *Indexer) Ingest(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := i.index.EnsureCollection(ctx); err != nil {
		return err
	}
	if err := i.embedChunks(ctx, chunks); err != nil {
		return err
	}
	return i.index.Upsert(ctx, chunks)
}

func (i *Indexer) embedChunks(ctx context.Context, chunks []*entity.DocumentChunk) error {
	texts := make([]string, len(chunks))
	for n, c := range chunks {
		texts[n] = c.Text
	}

	vectors, err := i.embedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(chunks))
	}
	for n := range chunks {
		chunks[n].Vector = vectors[n]
	}
	return nil
}

func (i *Indexer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if i == nil || i.embedder == nil {
		return nil, ErrVectorDisabled
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		v64, err := i.embedder.EmbedStrings(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		for _, vec := range v64 {
			f32 := make([]float32, 0, len(vec))
			for _, x := range vec {
				f32 = append(f32, float32(x))
			}
			out = append(out, f32)
		}
	}
	return out, nil
}
