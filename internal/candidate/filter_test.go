package candidate

import (
	"reflect"
	"strings"
	"testing"

	"github.com/verte-zerg/glide/internal/keymap"
	"github.com/verte-zerg/glide/internal/model"
)

func pathThrough(km keymap.Static, keys string) []model.Point {
	points := make([]model.Point, 0, len(keys))
	for _, r := range keys {
		rect, _ := km.Get(r)
		points = append(points, model.Point{X: rect.X, Y: rect.Y, Key: r, OriginalKey: r})
	}
	return points
}

func TestCandidatesAnchorScenario(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	f := New([]string{"art", "ape", "are"}, km)
	got := f.Candidates(pathThrough(km, "are"), []rune("are"))
	if !reflect.DeepEqual(got, []string{"are"}) {
		t.Fatalf("expected [are], got %v", got)
	}
}

func TestCandidatesKeepsDictionaryOrder(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	f := New([]string{"there", "the", "three", "tee"}, km)
	got := f.Candidates(pathThrough(km, "threrte"), []rune("te"))
	want := []string{"there", "the", "three", "tee"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestCandidatesLimitAndEndpoints(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	letters := "qwertyuiopsdfghjkl"
	var words []string
	for _, a := range letters {
		for _, b := range letters[:3] {
			words = append(words, "a"+string(a)+string(b)+"e")
		}
	}
	f := New(words, km)
	got := f.Candidates(pathThrough(km, "a"+letters+"e"), []rune("ae"))
	if len(got) != DefaultLimit {
		t.Fatalf("expected %d candidates, got %d", DefaultLimit, len(got))
	}
	for _, w := range got {
		if !strings.HasPrefix(w, "a") || !strings.HasSuffix(w, "e") {
			t.Fatalf("candidate %q violates endpoints", w)
		}
	}

	limited := New(words, km, WithLimit(5)).Candidates(pathThrough(km, "a"+letters+"e"), []rune("ae"))
	if len(limited) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(limited))
	}
}

func TestCandidatesLengthBound(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	f := New([]string{"ae", "are"}, km)
	got := f.Candidates(pathThrough(km, "are"), []rune("are"))
	if !reflect.DeepEqual(got, []string{"are"}) {
		t.Fatalf("expected ae to fail the length bound, got %v", got)
	}
}

func TestCandidatesGeometricRejection(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	f := New([]string{"ape", "awe"}, km)
	got := f.Candidates(pathThrough(km, "awe"), []rune("ae"))
	if !reflect.DeepEqual(got, []string{"awe"}) {
		t.Fatalf("expected p to be too far from the path, got %v", got)
	}

	wide := New([]string{"ape", "awe"}, km, WithHitRadius(1000))
	if got := wide.Candidates(pathThrough(km, "awe"), []rune("ae")); len(got) != 2 {
		t.Fatalf("expected wide radius to accept both, got %v", got)
	}
}

func TestCandidatesSkipsRepeatedLetters(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	e, _ := km.Get('e')
	points := []model.Point{
		{X: 1000, Y: 1000, Key: 'a'},
		{X: e.X, Y: e.Y, Key: 'e'},
	}
	f := New([]string{"aae", "aze"}, km)
	got := f.Candidates(points, []rune("ae"))
	if !reflect.DeepEqual(got, []string{"aae"}) {
		t.Fatalf("expected repeated a to be tolerated and z rejected, got %v", got)
	}
}

func TestCandidatesSkipsUnmappedLetters(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	f := New([]string{"a1e"}, km)
	if got := f.Candidates(pathThrough(km, "ae"), []rune("ae")); len(got) != 1 {
		t.Fatalf("expected unmapped interior letter to be skipped, got %v", got)
	}
}

func TestCandidatesRepeatedAnchors(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	f := New([]string{"bana", "banana", "baan"}, km)
	path := pathThrough(km, "banana")

	got := f.Candidates(path, []rune("bna"))
	if !reflect.DeepEqual(got, []string{"bana", "banana"}) {
		t.Fatalf("expected bana and banana, got %v", got)
	}

	got = f.Candidates(path, []rune("bnana"))
	if !reflect.DeepEqual(got, []string{"banana"}) {
		t.Fatalf("expected ordered n-a-n scan to keep only banana, got %v", got)
	}
}

func TestCandidatesPreconditions(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	f := New([]string{"are"}, km)
	if got := f.Candidates(pathThrough(km, "a"), []rune("a")); got != nil {
		t.Fatalf("expected nil for single point, got %v", got)
	}
	points := pathThrough(km, "are")
	points[0].Key = model.NoKey
	if got := f.Candidates(points, []rune("are")); got != nil {
		t.Fatalf("expected nil when first point is unmapped, got %v", got)
	}
}

func TestNewDedupesAndLowercases(t *testing.T) {
	f := New([]string{"The", "the", "a", " cat ", "  "}, nil)
	if f.Size() != 3 {
		t.Fatalf("expected 3 indexed words, got %d", f.Size())
	}
}

func TestCandidatesKeepsSingleLetterWords(t *testing.T) {
	km := keymap.QWERTY(60, 60)
	f := New([]string{"a", "aa", "ada"}, km)
	got := f.Candidates(pathThrough(km, "aaaa"), []rune("a"))
	want := []string{"a", "aa"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
