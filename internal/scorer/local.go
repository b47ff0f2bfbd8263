package scorer

import (
	"context"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/verte-zerg/glide/internal/model"
)

const defaultLocalTop = 5

// Local ranks the geometric candidates offline by Jaro-Winkler similarity
// between the collapsed gesture sequence and each candidate with its double
// letters collapsed. Ties keep dictionary order. It never suggests a next word.
type Local struct {
	top int
}

// NewLocal returns a Local scorer returning at most top words (5 when top <= 0).
func NewLocal(top int) *Local {
	if top <= 0 {
		top = defaultLocalTop
	}
	return &Local{top: top}
}

// Score implements Scorer.
func (l *Local) Score(ctx context.Context, req Request) (model.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return model.Prediction{}, err
	}
	if len(req.Candidates) == 0 {
		return model.Prediction{}, ErrNoPrediction
	}
	seq := strings.ToLower(req.Sequence)

	type ranked struct {
		word  string
		score float64
		index int
	}
	items := make([]ranked, 0, len(req.Candidates))
	for i, w := range req.Candidates {
		items = append(items, ranked{
			word:  w,
			score: matchr.JaroWinkler(seq, collapseRuns(strings.ToLower(w)), false),
			index: i,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score == items[j].score {
			return items[i].index < items[j].index
		}
		return items[i].score > items[j].score
	})

	n := l.top
	if n > len(items) {
		n = len(items)
	}
	words := make([]string, 0, n)
	for _, it := range items[:n] {
		words = append(words, it.word)
	}
	return model.Prediction{Words: words}, nil
}

func collapseRuns(s string) string {
	var b strings.Builder
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
