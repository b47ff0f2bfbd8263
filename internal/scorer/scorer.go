// Package scorer defines the ranking backend consulted on pattern cache misses.
//
// A Scorer receives the raw trajectory, the anchor keys, the geometric
// candidate list (possibly empty) and the text committed so far, and returns
// ranked words plus an optional next-word suggestion. Callers treat every
// error as "no prediction".
package scorer

import (
	"context"
	"errors"

	"github.com/verte-zerg/glide/internal/model"
)

var (
	// ErrNoPrediction is returned when a scorer produced no usable word.
	ErrNoPrediction = errors.New("scorer: no prediction")
	// ErrMalformed is returned when a backend response could not be parsed.
	ErrMalformed = errors.New("scorer: malformed response")
)

// Request carries everything a scorer may use to rank a gesture.
type Request struct {
	Trajectory []model.Point
	Sequence   string
	Anchors    []rune
	Candidates []string
	Context    string
}

// Scorer ranks words for a gesture. Implementations must be safe for
// concurrent use and honor ctx cancellation.
type Scorer interface {
	Score(ctx context.Context, req Request) (model.Prediction, error)
}

// Func adapts a function to the Scorer interface.
type Func func(ctx context.Context, req Request) (model.Prediction, error)

// Score implements Scorer.
func (f Func) Score(ctx context.Context, req Request) (model.Prediction, error) {
	return f(ctx, req)
}
