package anchor

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/glide/internal/model"
	"github.com/verte-zerg/glide/internal/trajectory"
)

var epoch = time.Unix(0, 0)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

func seg(key rune, startMs, endMs int, x, y float64) model.KeySegment {
	return model.KeySegment{Key: key, Start: at(startMs), End: at(endMs), Samples: 1, LastX: x, LastY: y}
}

func TestExtractQwertyScenario(t *testing.T) {
	type sample struct {
		key  rune
		ms   int
		x, y float64
	}
	samples := []sample{
		{'q', 0, 0, 0},
		{'q', 30, 0, 0},
		{'w', 60, 40, 0},
		{'e', 90, 80, 0},
		{'r', 120, 80, 60},
		{'t', 150, 120, 60},
		{'t', 350, 120, 60},
		{'t', 550, 120, 60},
		{'y', 580, 160, 60},
	}
	points := make([]model.Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, model.Point{X: s.x, Y: s.y, T: at(s.ms), Key: s.key, OriginalKey: s.key})
	}

	sig := Extract(trajectory.Segment(points))
	if sig.Sequence != "qwerty" {
		t.Fatalf("expected sequence qwerty, got %q", sig.Sequence)
	}
	if got := sig.AnchorString(); got != "qtery" {
		t.Fatalf("expected anchors qtery, got %q", got)
	}
}

func TestExtractAlwaysContainsFirstAndLast(t *testing.T) {
	segs := []model.KeySegment{
		seg('c', 0, 10, 0, 0),
		seg('a', 10, 20, 10, 0),
		seg('t', 20, 30, 20, 0),
	}
	sig := Extract(segs)
	if len(sig.Anchors) == 0 {
		t.Fatalf("expected anchors")
	}
	if sig.Anchors[0] != 'c' || sig.Anchors[len(sig.Anchors)-1] != 't' {
		t.Fatalf("expected c...t anchors, got %q", sig.AnchorString())
	}
}

func TestExtractSingleSegmentNeverDwells(t *testing.T) {
	sig := Extract([]model.KeySegment{seg('k', 0, 500, 0, 0)})
	if sig.Sequence != "k" || sig.AnchorString() != "k" {
		t.Fatalf("unexpected signature %+v", sig)
	}
}

func TestExtractZeroDurationsSkipDwell(t *testing.T) {
	segs := []model.KeySegment{
		seg('a', 0, 0, 0, 0),
		seg('b', 0, 0, 10, 0),
		seg('c', 0, 0, 20, 0),
	}
	sig := Extract(segs)
	if got := sig.AnchorString(); got != "ac" {
		t.Fatalf("expected only endpoints, got %q", got)
	}
}

func TestExtractDedupesRepeatedEndpoint(t *testing.T) {
	segs := []model.KeySegment{
		seg('a', 0, 10, 0, 0),
		seg('b', 10, 20, 50, 0),
		seg('a', 20, 30, 0, 0),
	}
	sig := Extract(segs)
	// b is a 180 degree reversal, a repeats as the last key.
	if got := sig.AnchorString(); got != "ab" {
		t.Fatalf("expected ab, got %q", got)
	}
	if sig.Sequence != "aba" {
		t.Fatalf("expected non-adjacent visits to remain, got %q", sig.Sequence)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	segs := []model.KeySegment{
		seg('h', 0, 40, 0, 0),
		seg('e', 40, 60, 30, 20),
		seg('l', 60, 260, 80, 0),
		seg('o', 260, 280, 90, -40),
	}
	first := Extract(segs)
	second := Extract(segs)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical signatures: %+v vs %+v", first, second)
	}
}

func TestExtractOptions(t *testing.T) {
	segs := []model.KeySegment{
		seg('a', 0, 10, 0, 0),
		seg('b', 10, 24, 10, 0),
		seg('c', 24, 34, 20, 10),
	}
	if got := Extract(segs).AnchorString(); got != "ac" {
		t.Fatalf("expected defaults to flag nothing interior, got %q", got)
	}
	got := Extract(segs, WithDwellFactor(1.1), WithInflectionDegrees(30)).AnchorString()
	if got != "abc" {
		t.Fatalf("expected tuned thresholds to flag b, got %q", got)
	}
}

func TestTurnDegrees(t *testing.T) {
	tests := []struct {
		name                 string
		inX, inY, outX, outY float64
		want                 float64
	}{
		{"straight", 1, 0, 1, 0, 0},
		{"reverse", 1, 0, -1, 0, 180},
		{"right angle", 1, 0, 0, 1, 90},
		{"diagonal", 1, 0, 1, 1, 45},
		{"wraps around", math.Cos(170 * math.Pi / 180), math.Sin(170 * math.Pi / 180), math.Cos(-170 * math.Pi / 180), math.Sin(-170 * math.Pi / 180), 20},
	}
	for _, tt := range tests {
		got := turnDegrees(tt.inX, tt.inY, tt.outX, tt.outY)
		if math.Abs(got-tt.want) > 1e-6 {
			t.Fatalf("%s: expected %.2f, got %.2f", tt.name, tt.want, got)
		}
	}
}
