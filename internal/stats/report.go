package stats

import (
	"context"
	"io"
	"time"

	"github.com/verte-zerg/glide/internal/model"
)

// Source is the decode history backend, implemented by the SQLite store.
type Source interface {
	SourceCounts(ctx context.Context) ([]model.SourceCount, error)
	ListDecodes(ctx context.Context, since time.Time, limit int) ([]model.DecodeRecord, error)
	Entries(ctx context.Context) ([]model.PatternEntry, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Summary  Summary
	Recent   []model.DecodeRecord
	Patterns []model.PatternEntry
	Top      []WordCount
	Missed   []string
}

// BuildReport loads the last decodes and all learned patterns.
func BuildReport(ctx context.Context, src Source, last int) (Report, error) {
	counts, err := src.SourceCounts(ctx)
	if err != nil {
		return Report{}, err
	}
	recent, err := src.ListDecodes(ctx, time.Time{}, last)
	if err != nil {
		return Report{}, err
	}
	patterns, err := src.Entries(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Summary:  Summarize(counts),
		Recent:   recent,
		Patterns: patterns,
		Top:      TopWords(recent, 10),
		Missed:   MissedSequences(recent, 10),
	}, nil
}

// RenderReport prints every section of r. Lines are truncated to width
// display columns when width > 0; window is the trend smoothing window.
func RenderReport(w io.Writer, r Report, width, window int) error {
	if err := RenderSummary(w, r.Summary); err != nil {
		return err
	}
	if err := RenderTrend(w, r.Recent, window, width-2); err != nil {
		return err
	}
	if err := RenderTopWords(w, r.Top); err != nil {
		return err
	}
	if err := RenderMissed(w, r.Missed); err != nil {
		return err
	}
	if err := RenderPatternTable(w, r.Patterns, width); err != nil {
		return err
	}
	return RenderDecodeTable(w, r.Recent, width)
}
