// Package stats contains decode statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/glide/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates decode counts by source.
type Summary struct {
	Total  int
	Tap    int
	Cache  int
	Scorer int
	None   int
}

// Gestures returns the number of non-tap decodes.
func (s Summary) Gestures() int {
	return s.Cache + s.Scorer + s.None
}

// CacheHitRate is the share of gestures answered by the pattern cache.
func (s Summary) CacheHitRate() float64 {
	if g := s.Gestures(); g > 0 {
		return float64(s.Cache) / float64(g)
	}
	return 0
}

// MissRate is the share of gestures that produced no word.
func (s Summary) MissRate() float64 {
	if g := s.Gestures(); g > 0 {
		return float64(s.None) / float64(g)
	}
	return 0
}

// Summarize folds per-source counts into a Summary.
func Summarize(counts []model.SourceCount) Summary {
	var s Summary
	for _, c := range counts {
		s.Total += c.Count
		switch c.Source {
		case model.SourceTap:
			s.Tap += c.Count
		case model.SourceCache:
			s.Cache += c.Count
		case model.SourceScorer:
			s.Scorer += c.Count
		case model.SourceNone:
			s.None += c.Count
		}
	}
	return s
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for values in [0, 1].
func Sparkline(values []float64) string {
	var b strings.Builder
	for _, v := range values {
		v = math.Max(0, math.Min(1, v))
		b.WriteByte(sparkChars[int(math.Round(v*float64(len(sparkChars)-1)))])
	}
	return b.String()
}

// HitSeries returns 1 for every cache hit and 0 for every other gesture, in
// record order. Taps are skipped.
func HitSeries(recs []model.DecodeRecord) []float64 {
	out := make([]float64, 0, len(recs))
	for _, r := range recs {
		switch r.Source {
		case model.SourceTap:
			continue
		case model.SourceCache:
			out = append(out, 1)
		default:
			out = append(out, 0)
		}
	}
	return out
}

// RenderSummary prints decode totals and rates.
func RenderSummary(w io.Writer, s Summary) error {
	if s.Total == 0 {
		_, err := fmt.Fprintln(w, "No decodes recorded.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Decodes: %d (%d taps, %d gestures)", s.Total, s.Tap, s.Gestures()),
		fmt.Sprintf("Cache hits: %d (%.2f%%)", s.Cache, s.CacheHitRate()*100),
		fmt.Sprintf("Scored: %d", s.Scorer),
		fmt.Sprintf("No prediction: %d (%.2f%%)", s.None, s.MissRate()*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrend prints the rolling cache hit rate of recent gestures, trimmed
// to the last width values.
func RenderTrend(w io.Writer, recs []model.DecodeRecord, window, width int) error {
	series := MovingAverage(HitSeries(recs), window)
	if len(series) == 0 {
		return nil
	}
	if width > 0 && len(series) > width {
		series = series[len(series)-width:]
	}
	_, err := fmt.Fprintf(w, "Cache hit trend (window %d)\n|%s|\n\n", window, Sparkline(series))
	return err
}
