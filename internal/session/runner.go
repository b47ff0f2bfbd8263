package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/glide/internal/model"
	"github.com/verte-zerg/glide/internal/scorer"
)

// DefaultScoreTimeout bounds a single scorer call.
const DefaultScoreTimeout = 3 * time.Second

// ErrStopped is returned by Runner methods once Run has returned.
var ErrStopped = errors.New("session: runner stopped")

type result struct {
	gen  uint64
	pred model.Prediction
	err  error
}

// Runner owns a Session on its own goroutine. Input is posted as events;
// the idle timer and scorer results are multiplexed on the same loop, so the
// session is never touched concurrently and never waits on the scorer.
type Runner struct {
	session *Session
	scorer  scorer.Scorer
	timeout time.Duration
	logger  *slog.Logger

	events  chan func(*Session) *Job
	results chan result
	stopped chan struct{}
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithScoreTimeout sets the per-call scorer timeout.
func WithScoreTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRunnerLogger sets the runner logger.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner wraps s; sc may be nil, in which case every miss resolves to no prediction.
func NewRunner(s *Session, sc scorer.Scorer, opts ...RunnerOption) *Runner {
	r := &Runner{
		session: s,
		scorer:  sc,
		timeout: DefaultScoreTimeout,
		logger:  slog.Default(),
		events:  make(chan func(*Session) *Job),
		results: make(chan result, 1),
		stopped: make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run processes events until ctx is done. In-flight scorer calls are
// cancelled and awaited before Run returns.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.stopped)

	var (
		wg        sync.WaitGroup
		timer     *time.Timer
		cancelJob context.CancelFunc
		jobGen    uint64
	)
	defer func() {
		if cancelJob != nil {
			cancelJob()
		}
		if timer != nil {
			timer.Stop()
		}
		wg.Wait()
	}()

	start := func(job *Job) {
		if job == nil {
			return
		}
		if cancelJob != nil {
			cancelJob()
		}
		if r.scorer == nil {
			r.session.Apply(job.Gen, model.Prediction{}, scorer.ErrNoPrediction)
			return
		}
		r.logger.Debug("scoring gesture", "gen", job.Gen, "sequence", job.Request.Sequence, "candidates", len(job.Request.Candidates))
		jobCtx, cancel := context.WithTimeout(ctx, r.timeout)
		cancelJob, jobGen = cancel, job.Gen
		wg.Add(1)
		go func(job *Job) {
			defer wg.Done()
			defer cancel()
			pred, err := r.scorer.Score(jobCtx, job.Request)
			select {
			case r.results <- result{gen: job.Gen, pred: pred, err: err}:
			case <-ctx.Done():
			}
		}(job)
	}

	for {
		if cancelJob != nil && r.session.Generation() != jobGen {
			cancelJob()
			cancelJob = nil
		}

		var tick <-chan time.Time
		if deadline, ok := r.session.Deadline(); ok {
			wait := time.Until(deadline)
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}
			tick = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-r.events:
			start(fn(r.session))
		case now := <-tick:
			start(r.session.Tick(now))
		case res := <-r.results:
			r.session.Apply(res.gen, res.pred, res.err)
		}
	}
}

func (r *Runner) post(ctx context.Context, fn func(*Session) *Job) error {
	select {
	case r.events <- fn:
		return nil
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// KeyDown posts a sample.
func (r *Runner) KeyDown(ctx context.Context, p model.Point) error {
	return r.post(ctx, func(s *Session) *Job {
		s.KeyDown(p)
		return nil
	})
}

// Commit posts the separator key.
func (r *Runner) Commit(ctx context.Context) error {
	return r.post(ctx, func(s *Session) *Job {
		return s.Commit()
	})
}

// Cancel posts a cancellation.
func (r *Runner) Cancel(ctx context.Context) error {
	return r.post(ctx, func(s *Session) *Job {
		s.Cancel()
		return nil
	})
}

// Correct posts an explicit correction.
func (r *Runner) Correct(ctx context.Context, word string) error {
	return r.post(ctx, func(s *Session) *Job {
		s.Correct(word)
		return nil
	})
}

// Clear posts a reset.
func (r *Runner) Clear(ctx context.Context) error {
	return r.post(ctx, func(s *Session) *Job {
		s.Clear()
		return nil
	})
}

// Snapshot returns the current view of the session.
func (r *Runner) Snapshot(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	err := r.post(ctx, func(s *Session) *Job {
		reply <- s.Snapshot()
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return <-reply, nil
}
