package chat

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-assist-api/internal/domain/entity"
)

func TestRecorderWritesQueuedRecords(t *testing.T) {
	repo := &fakeExchangeRepo{}
	r := NewRecorder(repo, 8, time.Second)

	r.Record(&entity.ExchangeRecord{ConversationID: "c1"})
	r.Record(&entity.ExchangeRecord{ConversationID: "c2"})
	r.Close()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.records, 2)
}

func TestRecorderFullQueueWritesInline(t *testing.T) {
	repo := &fakeExchangeRepo{}
	r := NewRecorder(repo, 1, time.Second)

	// More records than the queue holds still all land in the repo.
	for i := 0; i < 10; i++ {
		r.Record(&entity.ExchangeRecord{ConversationID: fmt.Sprintf("c%d", i)})
	}
	r.Close()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Len(t, repo.records, 10)
}

func TestRecorderRecordAfterCloseWritesInline(t *testing.T) {
	repo := &fakeExchangeRepo{}
	r := NewRecorder(repo, 8, time.Second)
	r.Close()

	r.Record(&entity.ExchangeRecord{ConversationID: "late"})

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.records, 1)
	assert.Equal(t, "late", repo.records[0].ConversationID)
}

func TestRecorderRecordRacingCloseLosesNothing(t *testing.T) {
	const writers = 8
	const perWriter = 50

	repo := &fakeExchangeRepo{}
	r := NewRecorder(repo, 4, time.Second)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				r.Record(&entity.ExchangeRecord{
					ConversationID: fmt.Sprintf("w%d-%d", w, i),
				})
			}
		}(w)
	}

	// Close while the writers are still recording. Sends must never hit
	// a closed queue; late records fall back to inline writes.
	r.Close()
	wg.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.records, writers*perWriter)

	seen := make(map[string]bool, len(repo.records))
	for _, rec := range repo.records {
		assert.False(t, seen[rec.ConversationID], "record %s written twice", rec.ConversationID)
		seen[rec.ConversationID] = true
	}
}

func TestRecorderCloseIsIdempotent(t *testing.T) {
	r := NewRecorder(&fakeExchangeRepo{}, 8, time.Second)
	r.Close()
	assert.NotPanics(t, func() { r.Close() })
}
