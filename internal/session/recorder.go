package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/glide/internal/model"
)

// DecodeWriter persists decode records.
type DecodeWriter interface {
	RecordDecode(ctx context.Context, rec model.DecodeRecord) error
}

// QueueRecorder is a Recorder that writes records from a background goroutine.
// Records arriving while the queue is full are dropped.
type QueueRecorder struct {
	w       DecodeWriter
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan model.DecodeRecord
	done   chan struct{}
}

// NewQueueRecorder starts a recorder writing through w. Call Close to flush.
func NewQueueRecorder(w DecodeWriter, logger *slog.Logger) *QueueRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	r := &QueueRecorder{
		w:       w,
		logger:  logger,
		timeout: 2 * time.Second,
		queue:   make(chan model.DecodeRecord, 64),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Record implements Recorder.
func (r *QueueRecorder) Record(rec model.DecodeRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- rec:
	default:
		r.logger.Warn("decode log queue full, dropping record", "sequence", rec.Sequence)
	}
}

// Close flushes queued records and stops the writer.
func (r *QueueRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
}

func (r *QueueRecorder) run() {
	defer close(r.done)
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.w.RecordDecode(ctx, rec); err != nil {
			r.logger.Warn("failed to record decode", "sequence", rec.Sequence, "err", err)
		}
		cancel()
	}
}
