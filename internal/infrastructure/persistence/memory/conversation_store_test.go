package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assist-api/internal/domain/entity"
)

func exchange(userText string) entity.Turn {
	return entity.Turn{
		UserText:      userText,
		AssistantText: "answer to " + userText,
		CreatedAt:     time.Now(),
	}
}

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	store := NewConversationStore(10)
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "session_a", "user1")
	require.NoError(t, err)
	assert.Equal(t, "session_a", first.ID)
	assert.Equal(t, "user1", first.UserID)

	again, err := store.GetOrCreate(ctx, "session_a", "someone_else")
	require.NoError(t, err)
	assert.Equal(t, "user1", again.UserID, "existing session keeps its owner")
}

func TestAppendTurnEvictsOldestBeyondBound(t *testing.T) {
	store := NewConversationStore(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.AppendTurn(ctx, "session_a", exchange(fmt.Sprintf("turn %d", i))))
	}

	turns, err := store.RecentContext(ctx, "session_a", 10)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "turn 3", turns[0].UserText)
	assert.Equal(t, "turn 5", turns[2].UserText)
}

func TestRecentContextOldestFirstWindow(t *testing.T) {
	store := NewConversationStore(10)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		require.NoError(t, store.AppendTurn(ctx, "session_a", exchange(fmt.Sprintf("turn %d", i))))
	}

	turns, err := store.RecentContext(ctx, "session_a", 3)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "turn 4", turns[0].UserText)
	assert.Equal(t, "turn 6", turns[2].UserText)
}

func TestRecentContextMissingSession(t *testing.T) {
	store := NewConversationStore(10)
	turns, err := store.RecentContext(context.Background(), "nope", 5)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestClearRemovesSession(t *testing.T) {
	store := NewConversationStore(10)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "session_a", exchange("hello")))
	require.NoError(t, store.Clear(ctx, "session_a"))

	turns, err := store.RecentContext(ctx, "session_a", 5)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestConcurrentAppendsLoseNothingWithinBound(t *testing.T) {
	const writers = 8
	const perWriter = 5
	store := NewConversationStore(writers * perWriter)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = store.AppendTurn(ctx, "session_a", exchange(fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	turns, err := store.RecentContext(ctx, "session_a", writers*perWriter)
	require.NoError(t, err)
	assert.Len(t, turns, writers*perWriter)
	for _, turn := range turns {
		assert.Equal(t, "answer to "+turn.UserText, turn.AssistantText, "pairs stay intact under concurrency")
	}
}

func TestReadsReturnCopies(t *testing.T) {
	store := NewConversationStore(10)
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, "session_a", exchange("original")))
	turns, err := store.RecentContext(ctx, "session_a", 5)
	require.NoError(t, err)
	turns[0].UserText = "mutated"

	fresh, err := store.RecentContext(ctx, "session_a", 5)
	require.NoError(t, err)
	assert.Equal(t, "original", fresh[0].UserText)
}
