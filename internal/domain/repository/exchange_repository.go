// Package repository defines data access interfaces.
package repository

import (
	"context"

	"campus-assist-api/internal/domain/entity"
)

// ExchangeStats aggregates usage over all exchange records.
type ExchangeStats struct {
	TotalConversations int64            `json:"total_conversations"`
	LanguagesUsed      map[string]int64 `json:"languages_used"`
	AverageConfidence  float64          `json:"average_confidence"`
	HandoffRate        float64          `json:"handoff_rate"`
}

// ExchangeRepository persists one record per answered query.
type ExchangeRepository interface {
	Create(ctx context.Context, record *entity.ExchangeRecord) error
	// ListRecent returns the most recent records, newest first.
	// language filters when non-empty.
	ListRecent(ctx context.Context, limit int, language string) ([]*entity.ExchangeRecord, error)
	Stats(ctx context.Context) (*ExchangeStats, error)
}
