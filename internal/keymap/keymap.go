// Package keymap provides calibrated key positions.
package keymap

import (
	"fmt"
	"math"
	"os"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/glide/internal/model"
)

// KeyMap resolves a lowercase character to its calibrated key rectangle.
// Implementations may be incomplete; callers tolerate missing keys.
type KeyMap interface {
	Get(r rune) (model.KeyRect, bool)
}

// Static is an in-memory KeyMap.
type Static map[rune]model.KeyRect

// Get implements KeyMap.
func (s Static) Get(r rune) (model.KeyRect, bool) {
	rect, ok := s[unicode.ToLower(r)]
	return rect, ok
}

// Nearest returns the key whose center is closest to (x, y).
func (s Static) Nearest(x, y float64) (rune, bool) {
	best := model.NoKey
	bestDist := math.Inf(1)
	for r, rect := range s {
		d := math.Hypot(rect.X-x, rect.Y-y)
		if d < bestDist || (d == bestDist && r < best) {
			best, bestDist = r, d
		}
	}
	return best, best != model.NoKey
}

var qwertyRows = []struct {
	keys   string
	offset float64
}{
	{"qwertyuiop", 0},
	{"asdfghjkl", 0.25},
	{"zxcvbnm", 0.75},
}

// QWERTY builds a staggered QWERTY layout with keys of the given size.
// Zero or negative sizes fall back to 60x60.
func QWERTY(keyW, keyH float64) Static {
	if keyW <= 0 {
		keyW = 60
	}
	if keyH <= 0 {
		keyH = 60
	}
	out := make(Static, 26)
	for row, spec := range qwertyRows {
		for col, r := range spec.keys {
			out[r] = model.KeyRect{
				X:      (float64(col)+spec.offset)*keyW + keyW/2,
				Y:      float64(row)*keyH + keyH/2,
				Width:  keyW,
				Height: keyH,
			}
		}
	}
	return out
}

// Rows returns the QWERTY letter rows in display order.
func Rows() []string {
	out := make([]string, len(qwertyRows))
	for i, row := range qwertyRows {
		out[i] = row.keys
	}
	return out
}

type fileKey struct {
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type fileLayout struct {
	Keys map[string]fileKey `toml:"keys"`
}

// LoadFile reads a calibration file of the form
//
//	[keys.a]
//	x = 30.0
//	y = 90.0
//	width = 60.0
//	height = 60.0
func LoadFile(path string) (Static, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat key map: %w", err)
	}
	var layout fileLayout
	if _, err := toml.DecodeFile(path, &layout); err != nil {
		return nil, fmt.Errorf("failed to decode key map: %w", err)
	}
	out := make(Static, len(layout.Keys))
	for name, k := range layout.Keys {
		r, size := utf8.DecodeRuneInString(name)
		if r == utf8.RuneError || size != len(name) {
			return nil, fmt.Errorf("invalid key %q in key map", name)
		}
		out[unicode.ToLower(r)] = model.KeyRect{X: k.X, Y: k.Y, Width: k.Width, Height: k.Height}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("key map is empty")
	}
	return out, nil
}
