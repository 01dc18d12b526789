package dto

import (
	"encoding/json"
	"time"

	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/internal/domain/repository"
)

// ExchangeLogResponse is one audit record.
type ExchangeLogResponse struct {
	ID                string                 `json:"id"`
	ConversationID    string                 `json:"conversation_id"`
	SessionID         string                 `json:"session_id"`
	UserID            string                 `json:"user_id,omitempty"`
	Language          string                 `json:"language"`
	OriginalQuery     string                 `json:"original_query"`
	EnglishQuery      string                 `json:"english_query"`
	Response          string                 `json:"response"`
	EnglishResponse   string                 `json:"english_response"`
	Confidence        float64                `json:"confidence"`
	NeedsHumanHandoff bool                   `json:"needs_human_handoff"`
	Sources           []*ChunkSourceResponse `json:"sources,omitempty"`
	Timestamp         time.Time              `json:"timestamp"`
}

// ExchangeLogListResponse is the recent-records listing.
type ExchangeLogListResponse struct {
	Logs  []*ExchangeLogResponse `json:"logs"`
	Total int                    `json:"total"`
}

// StatsResponse aggregates usage over all exchange records.
type StatsResponse struct {
	TotalConversations int64            `json:"total_conversations"`
	LanguagesUsed      map[string]int64 `json:"languages_used"`
	AverageConfidence  float64          `json:"average_confidence"`
	HandoffRate        float64          `json:"handoff_rate"`
}

// ReloadResponse reports a knowledge base rebuild.
type ReloadResponse struct {
	Chunks     int   `json:"chunks"`
	DurationMs int64 `json:"duration_ms"`
}

// ToExchangeLogResponse converts one record to its wire shape.
func ToExchangeLogResponse(r *entity.ExchangeRecord) *ExchangeLogResponse {
	if r == nil {
		return nil
	}
	var sources []entity.ChunkSource
	if len(r.Sources) > 0 {
		_ = json.Unmarshal(r.Sources, &sources)
	}
	return &ExchangeLogResponse{
		ID:                r.ID,
		ConversationID:    r.ConversationID,
		SessionID:         r.SessionID,
		UserID:            r.UserID,
		Language:          r.Language,
		OriginalQuery:     r.OriginalQuery,
		EnglishQuery:      r.EnglishQuery,
		Response:          r.Response,
		EnglishResponse:   r.EnglishResponse,
		Confidence:        r.Confidence,
		NeedsHumanHandoff: r.NeedsHumanReview,
		Sources:           toChunkSources(sources),
		Timestamp:         r.CreatedAt,
	}
}

// ToStatsResponse converts the aggregate to its wire shape.
func ToStatsResponse(s *repository.ExchangeStats) *StatsResponse {
	if s == nil {
		return &StatsResponse{LanguagesUsed: map[string]int64{}}
	}
	return &StatsResponse{
		TotalConversations: s.TotalConversations,
		LanguagesUsed:      s.LanguagesUsed,
		AverageConfidence:  s.AverageConfidence,
		HandoffRate:        s.HandoffRate,
	}
}
