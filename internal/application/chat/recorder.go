package chat

import (
	"context"
	"sync"
	"time"

	"campus-assist-api/internal/domain/entity"
	"campus-assist-api/internal/domain/repository"
	"campus-assist-api/pkg/logger"
	"campus-assist-api/pkg/metrics"
)

// Recorder writes exchange records off the request hot path. Records
// are queued to a background writer; when the queue is full the write
// happens inline so every answered query still produces exactly one
// record.
type Recorder struct {
	repo    repository.ExchangeRepository
	queue   chan *entity.ExchangeRecord
	timeout time.Duration

	wg sync.WaitGroup

	// mu guards closed and the queue send: Close takes the write lock
	// before closing the channel, so Record can never send on a closed
	// queue.
	mu     sync.RWMutex
	closed bool
}

// NewRecorder starts the background writer. repo may be nil, in which
// case records are dropped (the conversation still succeeds).
func NewRecorder(repo repository.ExchangeRepository, bufferSize int, writeTimeout time.Duration) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	r := &Recorder{
		repo:    repo,
		queue:   make(chan *entity.ExchangeRecord, bufferSize),
		timeout: writeTimeout,
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for record := range r.queue {
		r.write(record)
	}
}

func (r *Recorder) write(record *entity.ExchangeRecord) {
	if r.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.Create(ctx, record); err != nil {
		metrics.ExchangeWriteTotal.WithLabelValues("error").Inc()
		logger.Error(ctx, "failed to write exchange record", err,
			"conversation_id", record.ConversationID)
		return
	}
	metrics.ExchangeWriteTotal.WithLabelValues("ok").Inc()
}

// Record queues the record, writing inline when the queue is full or
// the recorder is closed.
func (r *Recorder) Record(record *entity.ExchangeRecord) {
	if record == nil {
		return
	}
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		r.write(record)
		return
	}
	select {
	case r.queue <- record:
		r.mu.RUnlock()
	default:
		r.mu.RUnlock()
		r.write(record)
	}
}

// Close drains the queue and stops the writer.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
