// Package candidate narrows a frequency-ordered dictionary to words that fit a gesture.
package candidate

import (
	"math"
	"strings"
	"unicode"

	"github.com/verte-zerg/glide/internal/keymap"
	"github.com/verte-zerg/glide/internal/model"
)

const (
	// DefaultLimit caps the number of candidates returned per gesture.
	DefaultLimit = 20
	// DefaultHitRadius is the maximum distance from a key center that counts as a visit.
	DefaultHitRadius = 80.0
)

type bucketKey struct {
	first rune
	last  rune
}

type entry struct {
	word  string
	runes []rune
}

// Filter holds a dictionary indexed by first and last letter.
type Filter struct {
	keys      keymap.KeyMap
	buckets   map[bucketKey][]entry
	size      int
	limit     int
	hitRadius float64
}

// Option tunes a Filter.
type Option func(*Filter)

// WithLimit sets the maximum number of candidates returned.
func WithLimit(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.limit = n
		}
	}
}

// WithHitRadius sets the key visit radius in key map units.
func WithHitRadius(r float64) Option {
	return func(f *Filter) {
		if r > 0 {
			f.hitRadius = r
		}
	}
}

// New builds a Filter over words, which must be ordered most common first.
// Words are lowercased; duplicates and blanks are dropped.
func New(words []string, keys keymap.KeyMap, opts ...Option) *Filter {
	f := &Filter{
		keys:      keys,
		buckets:   make(map[bucketKey][]entry),
		limit:     DefaultLimit,
		hitRadius: DefaultHitRadius,
	}
	if f.keys == nil {
		f.keys = keymap.Static{}
	}
	for _, o := range opts {
		o(f)
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		runes := []rune(w)
		if len(runes) == 0 {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		k := bucketKey{first: runes[0], last: runes[len(runes)-1]}
		f.buckets[k] = append(f.buckets[k], entry{word: w, runes: runes})
		f.size++
	}
	return f
}

// Size returns the number of indexed words.
func (f *Filter) Size() int {
	return f.size
}

// Candidates returns dictionary words consistent with the trajectory and
// anchors, in dictionary order. An empty result is a valid outcome.
func (f *Filter) Candidates(points []model.Point, anchors []rune) []string {
	if len(points) < 2 {
		return nil
	}
	first, last := points[0], points[len(points)-1]
	if !first.HasKey() || !last.HasKey() {
		return nil
	}
	bucket := f.buckets[bucketKey{first: unicode.ToLower(first.Key), last: unicode.ToLower(last.Key)}]
	interior := interiorAnchors(anchors)

	out := make([]string, 0, f.limit)
	for _, e := range bucket {
		if len(e.runes) < len(anchors) {
			continue
		}
		if !containsInOrder(e.word, interior) {
			continue
		}
		if !f.visitsKeys(e.runes, points) {
			continue
		}
		out = append(out, e.word)
		if len(out) >= f.limit {
			break
		}
	}
	return out
}

func interiorAnchors(anchors []rune) []rune {
	if len(anchors) <= 2 {
		return nil
	}
	out := make([]rune, 0, len(anchors)-2)
	for _, a := range anchors[1 : len(anchors)-1] {
		out = append(out, unicode.ToLower(a))
	}
	return out
}

// containsInOrder reports whether every anchor appears in word at or after
// the position following the previous match.
func containsInOrder(word string, anchors []rune) bool {
	cursor := 0
	for _, a := range anchors {
		idx := strings.IndexRune(word[cursor:], a)
		if idx < 0 {
			return false
		}
		cursor += idx + len(string(a))
	}
	return true
}

// visitsKeys checks that every interior letter, other than a repeat of the
// previous letter, has some sample near its key. Unmapped letters are skipped.
func (f *Filter) visitsKeys(word []rune, points []model.Point) bool {
	for i := 1; i < len(word)-1; i++ {
		if word[i] == word[i-1] {
			continue
		}
		rect, ok := f.keys.Get(word[i])
		if !ok {
			continue
		}
		if !f.nearAny(rect, points) {
			return false
		}
	}
	return true
}

func (f *Filter) nearAny(rect model.KeyRect, points []model.Point) bool {
	for _, p := range points {
		if math.Hypot(p.X-rect.X, p.Y-rect.Y) < f.hitRadius {
			return true
		}
	}
	return false
}
