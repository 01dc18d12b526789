// Package entity defines domain entities.
package entity

import "time"

// Turn is one completed exchange in a session's context window: the
// user's query and the assistant's answer, both in the user's language.
// Keeping the pair in one value means an exchange enters and leaves the
// window atomically; two concurrent queries can never interleave one
// session's queries with another's answers.
type Turn struct {
	UserText      string    `json:"user_text"`
	AssistantText string    `json:"assistant_text"`
	Language      string    `json:"language,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Session is a conversation's bounded context window. Older turns are
// evicted FIFO once MaxTurns is exceeded; evicted turns survive only in
// the exchange log.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty session.
func NewSession(id, userID string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
