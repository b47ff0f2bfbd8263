package scorer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/glide/internal/model"
)

func TestLocalRanksBySimilarity(t *testing.T) {
	l := NewLocal(3)
	pred, err := l.Score(context.Background(), Request{
		Sequence:   "helo",
		Candidates: []string{"halo", "hello", "hero", "helio"},
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(pred.Words) != 3 {
		t.Fatalf("expected 3 words, got %v", pred.Words)
	}
	if pred.Words[0] != "hello" {
		t.Fatalf("expected hello first, got %v", pred.Words)
	}
	if pred.NextWord != "" {
		t.Fatalf("expected no next word, got %q", pred.NextWord)
	}
}

func TestLocalTiesKeepDictionaryOrder(t *testing.T) {
	pred, err := NewLocal(0).Score(context.Background(), Request{
		Sequence:   "ae",
		Candidates: []string{"aqe", "awe"},
	})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if !reflect.DeepEqual(pred.Words, []string{"aqe", "awe"}) {
		t.Fatalf("expected dictionary order on ties, got %v", pred.Words)
	}
}

func TestLocalWithoutCandidates(t *testing.T) {
	_, err := NewLocal(3).Score(context.Background(), Request{Sequence: "qz"})
	if !errors.Is(err, ErrNoPrediction) {
		t.Fatalf("expected ErrNoPrediction, got %v", err)
	}
}

func TestLocalHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(3).Score(ctx, Request{Candidates: []string{"a"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCollapseRuns(t *testing.T) {
	if got := collapseRuns("bookkeeper"); got != "bokeper" {
		t.Fatalf("expected bokeper, got %q", got)
	}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestBreaker(next Scorer, clock *fakeClock) *Breaker {
	b := NewBreaker(next, BreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	b.now = clock.Now
	return b
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	errBackend := errors.New("backend down")
	calls := 0
	fail := true
	next := Func(func(context.Context, Request) (model.Prediction, error) {
		calls++
		if fail {
			return model.Prediction{}, errBackend
		}
		return model.Prediction{Words: []string{"ok"}}, nil
	})
	clock := &fakeClock{now: time.Unix(100, 0)}
	b := newTestBreaker(next, clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := b.Score(ctx, Request{}); !errors.Is(err, errBackend) {
			t.Fatalf("expected backend error, got %v", err)
		}
	}
	if b.State() != BreakerOpen {
		t.Fatalf("expected open, got %v", b.State())
	}
	if _, err := b.Score(ctx, Request{}); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected open breaker to skip the backend, got %d calls", calls)
	}

	clock.now = clock.now.Add(time.Minute)
	if b.State() != BreakerHalfOpen {
		t.Fatalf("expected half-open, got %v", b.State())
	}
	fail = false
	pred, err := b.Score(ctx, Request{})
	if err != nil || pred.Words[0] != "ok" {
		t.Fatalf("expected probe to succeed, got %v %v", pred, err)
	}
	if b.State() != BreakerClosed {
		t.Fatalf("expected closed after probe, got %v", b.State())
	}
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	next := Func(func(context.Context, Request) (model.Prediction, error) {
		return model.Prediction{}, errors.New("still down")
	})
	clock := &fakeClock{now: time.Unix(100, 0)}
	b := newTestBreaker(next, clock)
	ctx := context.Background()
	_, _ = b.Score(ctx, Request{})
	_, _ = b.Score(ctx, Request{})
	clock.now = clock.now.Add(2 * time.Minute)
	_, _ = b.Score(ctx, Request{})
	if b.State() != BreakerOpen {
		t.Fatalf("expected re-opened breaker, got %v", b.State())
	}
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	next := Func(func(context.Context, Request) (model.Prediction, error) {
		return model.Prediction{}, context.Canceled
	})
	b := newTestBreaker(next, &fakeClock{now: time.Unix(100, 0)})
	for i := 0; i < 5; i++ {
		_, _ = b.Score(context.Background(), Request{})
	}
	if b.State() != BreakerClosed {
		t.Fatalf("expected cancellations not to trip the breaker, got %v", b.State())
	}
}

func TestBreakerStateString(t *testing.T) {
	if BreakerHalfOpen.String() != "half-open" || BreakerState(9).String() != "unknown" {
		t.Fatalf("unexpected state names")
	}
}
