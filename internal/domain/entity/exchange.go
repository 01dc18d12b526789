// Package entity defines domain entities.
package entity

import (
	"encoding/json"
	"time"
)

// ExchangeRecord is the audit row written once per answered query.
// It outlives the session context window.
type ExchangeRecord struct {
	ID               string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationID   string          `json:"conversation_id" gorm:"type:varchar(64);index;not null"`
	SessionID        string          `json:"session_id" gorm:"type:varchar(64);index;not null"`
	UserID           string          `json:"user_id,omitempty" gorm:"type:varchar(64);index"`
	Language         string          `json:"language" gorm:"type:varchar(8);index;not null"`
	OriginalQuery    string          `json:"original_query" gorm:"type:text;not null"`
	EnglishQuery     string          `json:"english_query" gorm:"type:text;not null"`
	Response         string          `json:"response" gorm:"type:text;not null"`
	EnglishResponse  string          `json:"english_response" gorm:"type:text;not null"`
	Confidence       float64         `json:"confidence" gorm:"not null;default:0"`
	NeedsHumanReview bool            `json:"needs_human_handoff" gorm:"not null;default:false;column:needs_human_handoff"`
	Sources          json.RawMessage `json:"sources,omitempty" gorm:"type:jsonb"`
	CreatedAt        time.Time       `json:"timestamp" gorm:"autoCreateTime;index"`
}

func (ExchangeRecord) TableName() string {
	return "exchange_records"
}

// ChunkSource is the citation shape stored in Sources.
type ChunkSource struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Source   string `json:"source,omitempty"`
}
