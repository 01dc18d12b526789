// Package redis provides the Redis-backed conversation store.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/internal/domain/repository"
)

var convTracer = otel.Tracer("redis.conversation")

// ConversationStore keeps bounded session context windows in Redis
// lists. RPUSH+LTRIM run in one pipeline, so concurrent appends to the
// same session never interleave a push with another session's trim and
// the retention bound holds after every append.
type ConversationStore struct {
	client   *Client
	maxTurns int
	ttl      time.Duration
}

// NewConversationStore creates a store retaining maxTurns turns per
// session. Sessions idle longer than ttl expire; ttl <= 0 disables
// expiry.
func NewConversationStore(client *Client, maxTurns int, ttl time.Duration) *ConversationStore {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &ConversationStore{
		client:   client,
		maxTurns: maxTurns,
		ttl:      ttl,
	}
}

var _ repository.ConversationStore = (*ConversationStore)(nil)

func sessionMetaKey(sessionID string) string {
	return fmt.Sprintf("sess:%s", sessionID)
}

func sessionTurnsKey(sessionID string) string {
	return fmt.Sprintf("sess:%s:turns", sessionID)
}

// GetOrCreate returns the session, creating metadata on first use.
func (s *ConversationStore) GetOrCreate(ctx context.Context, sessionID, userID string) (*entity.Session, error) {
	ctx, span := convTracer.Start(ctx, "conversation.GetOrCreate",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	metaKey := sessionMetaKey(sessionID)
	now := time.Now()

	pipe := s.client.rdb.Pipeline()
	pipe.HSetNX(ctx, metaKey, "created_at", now.Format(time.RFC3339Nano))
	if userID != "" {
		pipe.HSetNX(ctx, metaKey, "user_id", userID)
	}
	getCmd := pipe.HGetAll(ctx, metaKey)
	if s.ttl > 0 {
		pipe.Expire(ctx, metaKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get or create session: %w", err)
	}

	meta := getCmd.Val()
	session := entity.NewSession(sessionID, meta["user_id"])
	if raw, ok := meta["created_at"]; ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			session.CreatedAt = t
		}
	}

	turns, err := s.RecentContext(ctx, sessionID, s.maxTurns)
	if err != nil {
		return nil, err
	}
	session.Turns = turns
	return session, nil
}

// AppendTurn appends a turn and trims the window in one pipeline.
func (s *ConversationStore) AppendTurn(ctx context.Context, sessionID string, turn entity.Turn) error {
	ctx, span := convTracer.Start(ctx, "conversation.AppendTurn",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	turnsKey := sessionTurnsKey(sessionID)
	pipe := s.client.rdb.TxPipeline()
	pipe.RPush(ctx, turnsKey, payload)
	pipe.LTrim(ctx, turnsKey, int64(-s.maxTurns), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, turnsKey, s.ttl)
		pipe.Expire(ctx, sessionMetaKey(sessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// RecentContext returns up to maxTurns most recent turns, oldest first.
func (s *ConversationStore) RecentContext(ctx context.Context, sessionID string, maxTurns int) ([]entity.Turn, error) {
	ctx, span := convTracer.Start(ctx, "conversation.RecentContext",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	if maxTurns <= 0 || maxTurns > s.maxTurns {
		maxTurns = s.maxTurns
	}

	raw, err := s.client.rdb.LRange(ctx, sessionTurnsKey(sessionID), int64(-maxTurns), -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read session turns: %w", err)
	}

	turns := make([]entity.Turn, 0, len(raw))
	for _, item := range raw {
		var t entity.Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			// skip corrupt entries rather than failing the query
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Clear removes the session and its turns.
func (s *ConversationStore) Clear(ctx context.Context, sessionID string) error {
	ctx, span := convTracer.Start(ctx, "conversation.Clear",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	return s.client.rdb.Del(ctx, sessionMetaKey(sessionID), sessionTurnsKey(sessionID)).Err()
}
