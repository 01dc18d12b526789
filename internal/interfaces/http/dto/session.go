package dto

import (
	"time"

	"campus-assist-api/internal/domain/entity"
)

// TurnResponse is one exchange of a session's context window.
type TurnResponse struct {
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	Language      string    `json:"language,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// SessionResponse is a session with its retained turns.
type SessionResponse struct {
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id,omitempty"`
	Turns     []*TurnResponse `json:"turns"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SessionHistoryResponse is the retained context window of a session.
type SessionHistoryResponse struct {
	SessionID string          `json:"session_id"`
	Turns     []*TurnResponse `json:"turns"`
}

// ToSessionResponse converts a session to its wire shape.
func ToSessionResponse(s *entity.Session) *SessionResponse {
	if s == nil {
		return nil
	}
	turns := make([]*TurnResponse, 0, len(s.Turns))
	for i := range s.Turns {
		turns = append(turns, ToTurnResponse(s.Turns[i]))
	}
	return &SessionResponse{
		SessionID: s.ID,
		UserID:    s.UserID,
		Turns:     turns,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// ToTurnResponse converts a turn to its wire shape.
func ToTurnResponse(t entity.Turn) *TurnResponse {
	return &TurnResponse{
		UserText:      t.UserText,
		AssistantText: t.AssistantText,
		Language:      t.Language,
		CreatedAt:     t.CreatedAt,
	}
}
