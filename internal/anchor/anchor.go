// Package anchor derives gesture signatures from key segments.
package anchor

import (
	"math"
	"strings"

	"github.com/verte-zerg/glide/internal/model"
)

const (
	// DefaultDwellFactor is the multiple of the mean dwell a segment must exceed.
	DefaultDwellFactor = 1.3
	// DefaultInflectionDegrees is the direction change that marks a turn.
	DefaultInflectionDegrees = 45.0
)

type options struct {
	dwellFactor       float64
	inflectionDegrees float64
}

// Option tunes signature extraction.
type Option func(*options)

// WithDwellFactor overrides the dwell threshold multiplier.
func WithDwellFactor(f float64) Option {
	return func(o *options) {
		if f > 0 {
			o.dwellFactor = f
		}
	}
}

// WithInflectionDegrees overrides the turn threshold in degrees.
func WithInflectionDegrees(deg float64) Option {
	return func(o *options) {
		if deg > 0 {
			o.inflectionDegrees = deg
		}
	}
}

// Extract builds the signature for segs. It has no side effects, so equal
// inputs always produce equal signatures.
func Extract(segs []model.KeySegment, opts ...Option) model.Signature {
	if len(segs) == 0 {
		return model.Signature{}
	}
	o := options{dwellFactor: DefaultDwellFactor, inflectionDegrees: DefaultInflectionDegrees}
	for _, opt := range opts {
		opt(&o)
	}

	ordered := make([]rune, 0, len(segs)+2)
	ordered = append(ordered, segs[0].Key)
	ordered = append(ordered, dwellKeys(segs, o.dwellFactor)...)
	ordered = append(ordered, inflectionKeys(segs, o.inflectionDegrees)...)
	ordered = append(ordered, segs[len(segs)-1].Key)

	var seq strings.Builder
	for _, s := range segs {
		if s.Key != model.NoKey {
			seq.WriteRune(s.Key)
		}
	}
	return model.Signature{Sequence: seq.String(), Anchors: dedupe(ordered)}
}

func dwellKeys(segs []model.KeySegment, factor float64) []rune {
	durations := make([]float64, len(segs))
	total := 0.0
	for i, s := range segs {
		durations[i] = float64(s.Duration().Microseconds())
		total += durations[i]
	}
	if total <= 0 {
		return nil
	}
	avg := total / float64(len(segs))
	var keys []rune
	for i, d := range durations {
		if d > factor*avg {
			keys = append(keys, segs[i].Key)
		}
	}
	return keys
}

func inflectionKeys(segs []model.KeySegment, threshold float64) []rune {
	if len(segs) <= 2 {
		return nil
	}
	var keys []rune
	for i := 1; i < len(segs)-1; i++ {
		inX, inY := segs[i].LastX-segs[i-1].LastX, segs[i].LastY-segs[i-1].LastY
		outX, outY := segs[i+1].LastX-segs[i].LastX, segs[i+1].LastY-segs[i].LastY
		// A zero-length leg has no direction.
		if (inX == 0 && inY == 0) || (outX == 0 && outY == 0) {
			continue
		}
		if turnDegrees(inX, inY, outX, outY) > threshold {
			keys = append(keys, segs[i].Key)
		}
	}
	return keys
}

// turnDegrees returns the absolute heading change between two vectors in [0, 180].
func turnDegrees(inX, inY, outX, outY float64) float64 {
	in := math.Atan2(inY, inX) * 180 / math.Pi
	out := math.Atan2(outY, outX) * 180 / math.Pi
	diff := math.Mod(math.Abs(out-in), 360)
	if diff > 180 {
		diff = 360 - diff
	}
	return diff
}

func dedupe(keys []rune) []rune {
	seen := make(map[rune]struct{}, len(keys))
	out := make([]rune, 0, len(keys))
	for _, k := range keys {
		if k == model.NoKey {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
