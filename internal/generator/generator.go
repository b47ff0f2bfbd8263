// Package generator builds synthetic key sample streams.
package generator

import (
	"math/rand"
	"time"
	"unicode"

	"github.com/verte-zerg/glide/internal/keymap"
	"github.com/verte-zerg/glide/internal/model"
)

// GhostStep is the spacing between ghost path points.
const GhostStep = 50 * time.Millisecond

// Options shapes a synthetic swipe.
type Options struct {
	// Step is the time between samples. Default: 10ms.
	Step time.Duration
	// Dwell is the number of extra samples held on each letter. Default: 2;
	// negative disables dwelling.
	Dwell int
	// Between is the number of interpolated samples between two letters. Default: 3.
	Between int
	// Jitter is the maximum random offset applied to each sample, in key map units.
	Jitter float64
	// Seed makes the jitter reproducible.
	Seed int64
}

func (o Options) withDefaults() Options {
	if o.Step <= 0 {
		o.Step = 10 * time.Millisecond
	}
	if o.Dwell < 0 {
		o.Dwell = 0
	} else if o.Dwell == 0 {
		o.Dwell = 2
	}
	if o.Between <= 0 {
		o.Between = 3
	}
	return o
}

// Generator produces synthetic swipes over a key map.
type Generator struct {
	keys keymap.Static
	opts Options
	rnd  *rand.Rand
}

// New returns a Generator sampling over keys.
func New(keys keymap.Static, opts Options) *Generator {
	opts = opts.withDefaults()
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{keys: keys, opts: opts, rnd: rand.New(rand.NewSource(seed))}
}

// Trajectory returns the samples of a swipe through the letters of word
// starting at start. Letters missing from the key map are skipped. Each
// sample resolves to the nearest key, so interpolated samples may touch keys
// that are not part of the word.
func (g *Generator) Trajectory(word string, start time.Time) []model.Point {
	centers := make([]model.KeyRect, 0, len(word))
	originals := make([]rune, 0, len(word))
	for _, r := range word {
		rect, ok := g.keys.Get(r)
		if !ok {
			continue
		}
		centers = append(centers, rect)
		originals = append(originals, r)
	}
	if len(centers) == 0 {
		return nil
	}

	points := make([]model.Point, 0, len(centers)*(g.opts.Dwell+g.opts.Between+1))
	t := start
	emit := func(x, y float64, original rune) {
		x += g.jitter()
		y += g.jitter()
		key, ok := g.keys.Nearest(x, y)
		if !ok {
			key = model.NoKey
		}
		if key != unicode.ToLower(original) {
			original = key
		}
		points = append(points, model.Point{X: x, Y: y, T: t, Key: key, OriginalKey: original})
		t = t.Add(g.opts.Step)
	}

	for i, c := range centers {
		for d := 0; d <= g.opts.Dwell; d++ {
			emit(c.X, c.Y, originals[i])
		}
		if i == len(centers)-1 {
			break
		}
		next := centers[i+1]
		for s := 1; s <= g.opts.Between; s++ {
			f := float64(s) / float64(g.opts.Between+1)
			emit(c.X+(next.X-c.X)*f, c.Y+(next.Y-c.Y)*f, model.NoKey)
		}
	}
	return points
}

// Tap returns one sample per character of text, as if each key was pressed
// once. Characters missing from the key map produce unmapped samples.
func (g *Generator) Tap(text string, start time.Time) []model.Point {
	points := make([]model.Point, 0, len(text))
	t := start
	for _, r := range text {
		p := model.Point{T: t, OriginalKey: r}
		if rect, ok := g.keys.Get(r); ok {
			p.X, p.Y = rect.X, rect.Y
			p.Key = unicode.ToLower(r)
		}
		points = append(points, p)
		t = t.Add(g.opts.Step)
	}
	return points
}

func (g *Generator) jitter() float64 {
	if g.opts.Jitter <= 0 {
		return 0
	}
	return (g.rnd.Float64()*2 - 1) * g.opts.Jitter
}

// Ghost returns the key centers of word spaced GhostStep apart, starting at
// start. Letters missing from keys are skipped.
func Ghost(word string, keys keymap.KeyMap, start time.Time) []model.Point {
	if keys == nil {
		return nil
	}
	points := make([]model.Point, 0, len(word))
	t := start
	for _, r := range word {
		rect, ok := keys.Get(r)
		if !ok {
			continue
		}
		points = append(points, model.Point{
			X:           rect.X,
			Y:           rect.Y,
			T:           t,
			Key:         unicode.ToLower(r),
			OriginalKey: r,
		})
		t = t.Add(GhostStep)
	}
	return points
}
