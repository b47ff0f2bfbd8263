// Package trajectory collapses raw gesture samples into key segments.
package trajectory

import (
	"strings"
	"unicode"

	"github.com/verte-zerg/glide/internal/model"
)

// Segment groups consecutive samples on the same key. Samples without a
// mapped key are skipped. The last position seen in a run wins.
func Segment(points []model.Point) []model.KeySegment {
	segments := make([]model.KeySegment, 0, len(points))
	for _, p := range points {
		if !p.HasKey() {
			continue
		}
		key := unicode.ToLower(p.Key)
		if n := len(segments); n > 0 && segments[n-1].Key == key {
			cur := &segments[n-1]
			cur.End = p.T
			cur.Samples++
			cur.LastX = p.X
			cur.LastY = p.Y
			continue
		}
		segments = append(segments, model.KeySegment{
			Key:     key,
			Start:   p.T,
			End:     p.T,
			Samples: 1,
			LastX:   p.X,
			LastY:   p.Y,
		})
	}
	return segments
}

// Keys returns the raw key string of a trajectory, unmapped samples omitted.
func Keys(points []model.Point) string {
	var b strings.Builder
	for _, p := range points {
		if p.HasKey() {
			b.WriteRune(p.Key)
		}
	}
	return b.String()
}

// Literal concatenates the original keys, as typed.
func Literal(points []model.Point) string {
	var b strings.Builder
	for _, p := range points {
		switch {
		case p.OriginalKey != model.NoKey:
			b.WriteRune(p.OriginalKey)
		case p.HasKey():
			b.WriteRune(p.Key)
		}
	}
	return b.String()
}
