// Package repository defines data access interfaces.
package repository

import (
	"context"

	"campus-assist-api/internal/domain/entity"
)

// ConversationStore holds bounded session context windows.
// Implementations must serialize mutations per session id; concurrent
// appends to the same session must not interleave or lose turns.
type ConversationStore interface {
	// GetOrCreate returns the session, creating an empty one on first use.
	GetOrCreate(ctx context.Context, sessionID, userID string) (*entity.Session, error)
	// AppendTurn appends a turn, evicting the oldest turn once the
	// retention bound is exceeded.
	AppendTurn(ctx context.Context, sessionID string, turn entity.Turn) error
	// RecentContext returns up to maxTurns most recent turns, oldest
	// first. A missing session yields an empty slice.
	RecentContext(ctx context.Context, sessionID string, maxTurns int) ([]entity.Turn, error)
	// Clear removes the session and its turns.
	Clear(ctx context.Context, sessionID string) error
}
