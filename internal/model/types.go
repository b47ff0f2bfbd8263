// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// NoKey marks a sample that did not resolve to a mapped key.
const NoKey rune = 0

// Point is one timestamped sample taken while a key is held.
type Point struct {
	X           float64
	Y           float64
	T           time.Time
	Key         rune // lowercased; NoKey when unmapped
	OriginalKey rune // literal character for tap fallback
}

// HasKey reports whether the sample resolved to a mapped key.
func (p Point) HasKey() bool {
	return p.Key != NoKey
}

// KeySegment is one maximal run of identical consecutive keys.
type KeySegment struct {
	Key     rune
	Start   time.Time
	End     time.Time
	Samples int
	LastX   float64
	LastY   float64
}

// Duration returns the dwell time spent on the segment's key.
func (s KeySegment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Signature is the collapsed key sequence plus ordered anchor keys.
type Signature struct {
	Sequence string
	Anchors  []rune
}

// AnchorString renders the anchors as a plain string.
func (s Signature) AnchorString() string {
	return string(s.Anchors)
}

// IsZero reports whether no segment contributed to the signature.
func (s Signature) IsZero() bool {
	return s.Sequence == "" && len(s.Anchors) == 0
}

// KeyRect is the calibrated center and extents of a key.
type KeyRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// PatternEntry is a learned sequence to word mapping.
type PatternEntry struct {
	Sequence  string
	Word      string
	UpdatedAt time.Time
}

// Prediction is the ranked output of a scorer.
type Prediction struct {
	Words    []string
	NextWord string
}

// Top returns the highest ranked word.
func (p Prediction) Top() (string, bool) {
	for _, w := range p.Words {
		if w = strings.TrimSpace(w); w != "" {
			return w, true
		}
	}
	return "", false
}

// Mode is the session state.
type Mode int

// Session modes.
const (
	ModeIdle Mode = iota
	ModeCapturing
	ModeResolving
)

// String returns the display name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeCapturing:
		return "capturing"
	case ModeResolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// DecodeSource records how a gesture was resolved.
type DecodeSource string

// Decode sources.
const (
	SourceTap    DecodeSource = "tap"
	SourceCache  DecodeSource = "cache"
	SourceScorer DecodeSource = "scorer"
	SourceNone   DecodeSource = "none"
)

// DecodeRecord captures one resolved gesture for the decode log.
type DecodeRecord struct {
	At         time.Time
	Sequence   string
	Anchors    string
	Word       string
	Source     DecodeSource
	Candidates int
}

// SourceCount aggregates decode records by source.
type SourceCount struct {
	Source DecodeSource
	Count  int
}
