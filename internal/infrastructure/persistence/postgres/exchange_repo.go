// Package postgres provides the PostgreSQL repository implementations.
package postgres

import (
	"context"
	"fmt"

	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/internal/domain/repository"
)

// ExchangeRepository persists exchange records.
type ExchangeRepository struct {
	client *Client
}

func NewExchangeRepository(client *Client) *ExchangeRepository {
	return &ExchangeRepository{client: client}
}

var _ repository.ExchangeRepository = (*ExchangeRepository)(nil)

func (r *ExchangeRepository) Create(ctx context.Context, record *entity.ExchangeRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.ExchangeRepository.Create")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	if err := db.Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create exchange record: %w", err)
	}
	return nil
}

func (r *ExchangeRepository) ListRecent(ctx context.Context, limit int, language string) ([]*entity.ExchangeRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.ExchangeRepository.ListRecent")
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	db := r.client.db.WithContext(ctx).
		Model(&entity.ExchangeRecord{}).
		Order("created_at DESC").
		Limit(limit)
	if language != "" {
		db = db.Where("language = ?", language)
	}

	var records []*entity.ExchangeRecord
	if err := db.Find(&records).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list exchange records: %w", err)
	}
	return records, nil
}

func (r *ExchangeRepository) Stats(ctx context.Context) (*repository.ExchangeStats, error) {
	ctx, span := tracer.Start(ctx, "postgres.ExchangeRepository.Stats")
	defer span.End()

	db := r.client.db.WithContext(ctx)
	stats := &repository.ExchangeStats{
		LanguagesUsed: map[string]int64{},
	}

	var totals struct {
		Total         int64
		AvgConfidence float64
		Handoffs      int64
	}
	if err := db.Model(&entity.ExchangeRecord{}).
		Select("COUNT(*) AS total, COALESCE(AVG(confidence),0) AS avg_confidence, COALESCE(SUM(CASE WHEN needs_human_handoff THEN 1 ELSE 0 END),0) AS handoffs").
		Scan(&totals).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to aggregate exchange stats: %w", err)
	}

	stats.TotalConversations = totals.Total
	if totals.Total > 0 {
		stats.AverageConfidence = totals.AvgConfidence
		stats.HandoffRate = float64(totals.Handoffs) / float64(totals.Total)
	}

	var perLanguage []struct {
		Language string
		Count    int64
	}
	if err := db.Model(&entity.ExchangeRecord{}).
		Select("language, COUNT(*) AS count").
		Group("language").
		Scan(&perLanguage).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to aggregate language stats: %w", err)
	}
	for _, row := range perLanguage {
		stats.LanguagesUsed[row.Language] = row.Count
	}

	return stats, nil
}
