package scorer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/glide/internal/model"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("scorer: circuit breaker is open")

// BreakerState is the operating mode of a Breaker.
type BreakerState int

// Breaker states.
const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// String returns the human-readable name of the state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds tuning knobs for a Breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening. Default: 3.
	MaxFailures int
	// ResetTimeout is how long the breaker stays open before probing. Default: 30s.
	ResetTimeout time.Duration
	Logger       *slog.Logger
}

// Breaker stops calling a failing scorer for a while so that gestures
// resolve to "no prediction" immediately instead of waiting on timeouts.
// Cancelled calls (a superseded gesture) do not count as failures.
type Breaker struct {
	next         Scorer
	maxFailures  int
	resetTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	openedAt    time.Time
	probeActive bool
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Scorer, cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Breaker{
		next:         next,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		logger:       cfg.Logger,
		now:          time.Now,
	}
}

// State returns the current state, reporting half-open once the reset
// timeout elapsed.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.resetTimeout {
		return BreakerHalfOpen
	}
	return b.state
}

// Score implements Scorer.
func (b *Breaker) Score(ctx context.Context, req Request) (model.Prediction, error) {
	probe, err := b.admit()
	if err != nil {
		return model.Prediction{}, err
	}
	pred, err := b.next.Score(ctx, req)
	b.record(probe, err)
	return pred, err
}

func (b *Breaker) admit() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.resetTimeout {
			return false, ErrCircuitOpen
		}
		b.state = BreakerHalfOpen
		b.logger.Info("scorer breaker half-open")
		fallthrough
	case BreakerHalfOpen:
		if b.probeActive {
			return false, ErrCircuitOpen
		}
		b.probeActive = true
		return true, nil
	default:
		return false, nil
	}
}

func (b *Breaker) record(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if probe {
		b.probeActive = false
	}
	if err != nil && errors.Is(err, context.Canceled) {
		if probe {
			b.state = BreakerOpen
		}
		return
	}
	if err == nil || errors.Is(err, ErrNoPrediction) {
		if probe {
			b.logger.Info("scorer breaker closed")
		}
		b.state = BreakerClosed
		b.failures = 0
		return
	}
	if probe {
		b.state = BreakerOpen
		b.openedAt = b.now()
		b.logger.Warn("scorer breaker re-opened", "err", err)
		return
	}
	b.failures++
	if b.failures >= b.maxFailures {
		b.state = BreakerOpen
		b.openedAt = b.now()
		b.logger.Warn("scorer breaker opened", "consecutive_failures", b.failures, "err", err)
	}
}
