// Package pattern implements the learned gesture-to-word cache.
//
// The in-memory map is authoritative for the running session. Writes are
// persisted asynchronously through a KV store and never block or fail the
// caller; the store only matters across restarts.
package pattern

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/verte-zerg/glide/internal/model"
)

const (
	defaultQueueSize    = 64
	defaultWriteTimeout = 2 * time.Second
)

// KV is the persistence backend. The cache only writes through Set; it
// restores entries through Lister when the backend implements it. Get serves
// point reads for other callers and is never used on the lookup path, so a
// backend without Lister starts empty.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Lister is implemented by backends that can enumerate stored patterns for Load.
type Lister interface {
	Entries(ctx context.Context) ([]model.PatternEntry, error)
}

type write struct {
	sequence string
	word     string
}

// Cache maps exact gesture sequences to confirmed words.
type Cache struct {
	kv           KV
	logger       *slog.Logger
	writeTimeout time.Duration

	mu      sync.RWMutex
	entries map[string]string
	closed  bool

	loaded atomic.Bool
	queue  chan write
	done   chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithQueueSize sets the capacity of the pending write queue.
func WithQueueSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.queue = make(chan write, n)
		}
	}
}

// WithWriteTimeout bounds each persistence write.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// New returns an empty cache persisting through kv. kv may be nil for a
// memory-only cache. Call Close to flush pending writes.
func New(kv KV, opts ...Option) *Cache {
	c := &Cache{
		kv:           kv,
		logger:       slog.Default(),
		writeTimeout: defaultWriteTimeout,
		entries:      make(map[string]string),
		queue:        make(chan write, defaultQueueSize),
		done:         make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	go c.writer()
	return c
}

// Load merges persisted patterns into memory. Entries learned before Load
// finishes take precedence. Lookups never wait for Load.
func (c *Cache) Load(ctx context.Context) error {
	defer c.loaded.Store(true)
	lister, ok := c.kv.(Lister)
	if !ok {
		return nil
	}
	stored, err := lister.Entries(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("failed to load patterns", "err", err)
		}
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range stored {
		if e.Sequence == "" || e.Word == "" {
			continue
		}
		if _, exists := c.entries[e.Sequence]; !exists {
			c.entries[e.Sequence] = e.Word
		}
	}
	c.logger.Debug("patterns loaded", "count", len(stored))
	return nil
}

// Loaded reports whether Load has finished.
func (c *Cache) Loaded() bool {
	return c.loaded.Load()
}

// Lookup returns the word learned for sequence. Matching is exact.
func (c *Cache) Lookup(sequence string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	word, ok := c.entries[sequence]
	return word, ok
}

// Learn records word for sequence, replacing any previous word. Learning the
// word already stored is a no-op and triggers no write.
func (c *Cache) Learn(sequence, word string) {
	if sequence == "" || word == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[sequence]; ok && cur == word {
		return
	}
	c.entries[sequence] = word
	if c.closed || c.kv == nil {
		return
	}
	select {
	case c.queue <- write{sequence: sequence, word: word}:
	default:
		c.logger.Warn("pattern write queue full, dropping write", "sequence", sequence)
	}
}

// Len returns the number of patterns in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops accepting writes and waits for queued writes to finish.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.done
		return
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()
	<-c.done
}

func (c *Cache) writer() {
	defer close(c.done)
	for w := range c.queue {
		ctx, cancel := context.WithTimeout(context.Background(), c.writeTimeout)
		if err := c.kv.Set(ctx, w.sequence, []byte(w.word)); err != nil {
			c.logger.Warn("failed to persist pattern", "sequence", w.sequence, "err", err)
		}
		cancel()
	}
}
