// Package milvus provides the Milvus vector index implementation.
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"campus-assist-api/internal/application/knowledge"
	domain "campus-assist-api/internal/domain/entity"
	"campus-assist-api/pkg/metrics"
)

// Repository implements knowledge.VectorIndex on Milvus. Queries go
// through a stable alias; a full reload builds a fresh generation
// collection and re-points the alias, so running queries keep reading
// the old generation until the swap completes.
type Repository struct {
	client *Client
}

// NewRepository creates the repository.
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

var _ knowledge.VectorIndex = (*Repository)(nil)

func (r *Repository) ready() error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	return nil
}

func (r *Repository) aliasName() string {
	return r.client.CollectionName(AliasKnowledgeChunks)
}

func (r *Repository) generationName() string {
	return fmt.Sprintf("%s_g%d", r.aliasName(), time.Now().UnixNano())
}

// EnsureCollection creates the first generation and the alias when the
// index does not exist yet. Never drops anything.
func (r *Repository) EnsureCollection(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection")
	defer span.End()

	alias := r.aliasName()
	exists, err := r.client.milvus.HasCollection(ctx, alias)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return r.client.milvus.LoadCollection(ctx, alias, false)
	}

	gen := r.generationName()
	if err := r.createGeneration(ctx, gen); err != nil {
		return err
	}
	if err := r.client.milvus.CreateAlias(ctx, gen, alias); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create alias: %w", err)
	}
	return r.client.milvus.LoadCollection(ctx, alias, false)
}

func (r *Repository) createGeneration(ctx context.Context, name string) error {
	ctx, span := tracer.Start(ctx, "milvus.createGeneration",
		trace.WithAttributes(attribute.String("collection", name)))
	defer span.End()

	if err := r.client.milvus.CreateCollection(ctx, KnowledgeChunksSchema(name), entity.DefaultShardNumber); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := r.client.milvus.CreateIndex(ctx, name, "vector", idx, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}
	return r.client.milvus.LoadCollection(ctx, name, false)
}

// Upsert deletes same-id rows and inserts the chunks into the current
// generation.
func (r *Repository) Upsert(ctx context.Context, chunks []*domain.DocumentChunk) error {
	if err := r.ready(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "milvus.Upsert",
		trace.WithAttributes(attribute.Int("count", len(chunks))))
	defer span.End()

	alias := r.aliasName()

	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c != nil && c.ID != "" {
			ids = append(ids, fmt.Sprintf("%q", c.ID))
		}
	}
	if len(ids) > 0 {
		expr := fmt.Sprintf("id in [%s]", strings.Join(ids, ","))
		if err := r.client.milvus.Delete(ctx, alias, "", expr); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to delete existing chunks: %w", err)
		}
	}

	return r.insert(ctx, alias, chunks)
}

func (r *Repository) insert(ctx context.Context, collection string, chunks []*domain.DocumentChunk) error {
	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	sourceTypes := make([]string, len(chunks))
	categories := make([]string, len(chunks))
	sources := make([]string, len(chunks))
	keywords := make([]string, len(chunks))
	texts := make([]string, len(chunks))

	for i, c := range chunks {
		ids[i] = c.ID
		vectors[i] = c.Vector
		sourceTypes[i] = string(c.SourceType)
		categories[i] = c.Category
		sources[i] = c.Source
		keywords[i] = strings.Join(c.Keywords, ",")
		texts[i] = c.Text
	}

	idCol := entity.NewColumnVarChar("id", ids)
	vectorCol := entity.NewColumnFloatVector("vector", VectorDimension, vectors)
	sourceTypeCol := entity.NewColumnVarChar("source_type", sourceTypes)
	categoryCol := entity.NewColumnVarChar("category", categories)
	sourceCol := entity.NewColumnVarChar("source", sources)
	keywordsCol := entity.NewColumnVarChar("keywords", keywords)
	textCol := entity.NewColumnVarChar("text", texts)

	if _, err := r.client.milvus.Insert(ctx, collection, "",
		idCol, vectorCol, sourceTypeCol, categoryCol, sourceCol, keywordsCol, textCol); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	return nil
}

// Search returns up to topK chunks by descending similarity.
func (r *Repository) Search(ctx context.Context, vector []float32, topK int) ([]domain.ScoredChunk, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(attribute.Int("top_k", topK)))
	defer span.End()

	alias := r.aliasName()
	start := time.Now()

	count, err := r.Count(ctx)
	if err != nil {
		metrics.MilvusSearchTotal.WithLabelValues(alias, "error").Inc()
		return nil, err
	}
	if count == 0 {
		return nil, knowledge.ErrIndexEmpty
	}

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	results, err := r.client.milvus.Search(ctx,
		alias,
		nil,
		"",
		[]string{"id", "source_type", "category", "source", "keywords", "text"},
		[]entity.Vector{entity.FloatVector(vector)},
		"vector",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		span.RecordError(err)
		metrics.MilvusSearchTotal.WithLabelValues(alias, "error").Inc()
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var scored []domain.ScoredChunk
	for _, result := range results {
		scored = append(scored, scoredFromResult(result)...)
	}

	metrics.MilvusSearchDuration.WithLabelValues(alias).Observe(time.Since(start).Seconds())
	metrics.MilvusSearchTotal.WithLabelValues(alias, "ok").Inc()
	span.SetAttributes(attribute.Int("result_count", len(scored)))
	return scored, nil
}

// scoredFromResult decodes one search result. With the COSINE metric
// the returned scores are cosine similarities (larger means closer,
// results already sorted descending), so they carry over unchanged —
// the same convention the in-memory index uses.
func scoredFromResult(result client.SearchResult) []domain.ScoredChunk {
	scored := make([]domain.ScoredChunk, 0, result.ResultCount)
	for i := 0; i < result.ResultCount; i++ {
		sc := domain.ScoredChunk{
			Similarity: result.Scores[i],
		}
		if col, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
			sc.Chunk.ID = col.Data()[i]
		}
		if col, ok := result.Fields.GetColumn("source_type").(*entity.ColumnVarChar); ok {
			sc.Chunk.SourceType = domain.SourceType(col.Data()[i])
		}
		if col, ok := result.Fields.GetColumn("category").(*entity.ColumnVarChar); ok {
			sc.Chunk.Category = col.Data()[i]
		}
		if col, ok := result.Fields.GetColumn("source").(*entity.ColumnVarChar); ok {
			sc.Chunk.Source = col.Data()[i]
		}
		if col, ok := result.Fields.GetColumn("keywords").(*entity.ColumnVarChar); ok {
			if raw := col.Data()[i]; raw != "" {
				sc.Chunk.Keywords = strings.Split(raw, ",")
			}
		}
		if col, ok := result.Fields.GetColumn("text").(*entity.ColumnVarChar); ok {
			sc.Chunk.Text = col.Data()[i]
		}
		scored = append(scored, sc)
	}
	return scored
}

// ReplaceAll builds a fresh generation, re-points the alias, and drops
// the old generations.
func (r *Repository) ReplaceAll(ctx context.Context, chunks []*domain.DocumentChunk) error {
	if err := r.ready(); err != nil {
		return err
	}
	ctx, span := tracer.Start(ctx, "milvus.ReplaceAll",
		trace.WithAttributes(attribute.Int("count", len(chunks))))
	defer span.End()

	alias := r.aliasName()
	gen := r.generationName()

	if err := r.createGeneration(ctx, gen); err != nil {
		return err
	}
	if len(chunks) > 0 {
		if err := r.insert(ctx, gen, chunks); err != nil {
			span.RecordError(err)
			// drop the half-built generation; the alias still serves the old one
			_ = r.client.milvus.DropCollection(ctx, gen)
			return err
		}
	}
	if err := r.client.milvus.Flush(ctx, gen, false); err != nil {
		span.RecordError(err)
		_ = r.client.milvus.DropCollection(ctx, gen)
		return fmt.Errorf("failed to flush generation: %w", err)
	}

	aliasExists, err := r.client.milvus.HasCollection(ctx, alias)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check alias: %w", err)
	}
	if aliasExists {
		err = r.client.milvus.AlterAlias(ctx, gen, alias)
	} else {
		err = r.client.milvus.CreateAlias(ctx, gen, alias)
	}
	if err != nil {
		span.RecordError(err)
		_ = r.client.milvus.DropCollection(ctx, gen)
		return fmt.Errorf("failed to repoint alias: %w", err)
	}

	return r.dropStaleGenerations(ctx, gen)
}

func (r *Repository) dropStaleGenerations(ctx context.Context, keep string) error {
	collections, err := r.client.milvus.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	prefix := r.aliasName() + "_g"
	for _, coll := range collections {
		if coll == nil || coll.Name == keep || !strings.HasPrefix(coll.Name, prefix) {
			continue
		}
		if err := r.client.milvus.DropCollection(ctx, coll.Name); err != nil {
			return fmt.Errorf("failed to drop stale generation %s: %w", coll.Name, err)
		}
	}
	return nil
}

// Count returns the row count behind the alias.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	stats, err := r.client.milvus.GetCollectionStatistics(ctx, r.aliasName())
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}
	raw, ok := stats["row_count"]
	if !ok {
		return 0, nil
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count: %w", err)
	}
	return count, nil
}
