package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/glide/internal/model"
	"github.com/verte-zerg/glide/internal/pattern"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "glide.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestGetSetRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, err := st.Get(ctx, "hlo"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.Set(ctx, "hlo", []byte("hello")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Set(ctx, "hlo", []byte("halo")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := st.Get(ctx, "hlo")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "halo" {
		t.Fatalf("expected halo, got %q", got)
	}
	entries, err := st.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Word != "halo" {
		t.Fatalf("expected one halo entry, got %+v", entries)
	}
}

func TestStoreBacksPatternCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glide.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	cache := pattern.New(st)
	cache.Learn("qwerty", "qwerty")
	cache.Learn("hlo", "hello")
	cache.Close()
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	restored := pattern.New(reopened)
	defer restored.Close()
	if err := restored.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if word, ok := restored.Lookup("hlo"); !ok || word != "hello" {
		t.Fatalf("expected hello after restart, got %q", word)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 patterns, got %d", restored.Len())
	}
}

func TestDecodeLog(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []model.DecodeRecord{
		{At: base, Sequence: "hi", Word: "hi", Source: model.SourceTap},
		{At: base.Add(time.Second), Sequence: "hlo", Anchors: "hlo", Word: "hello", Source: model.SourceScorer, Candidates: 3},
		{At: base.Add(2 * time.Second), Sequence: "hlo", Anchors: "hlo", Word: "hello", Source: model.SourceCache},
		{At: base.Add(3 * time.Second), Sequence: "qzx", Anchors: "qx", Source: model.SourceNone},
	}
	for _, rec := range records {
		if err := st.RecordDecode(ctx, rec); err != nil {
			t.Fatalf("record decode: %v", err)
		}
	}

	all, err := st.ListDecodes(ctx, time.Time{}, 0)
	if err != nil {
		t.Fatalf("list decodes: %v", err)
	}
	if len(all) != 4 || all[0].Source != model.SourceTap || all[3].Source != model.SourceNone {
		t.Fatalf("unexpected decode order: %+v", all)
	}

	last, err := st.ListDecodes(ctx, time.Time{}, 2)
	if err != nil {
		t.Fatalf("list last decodes: %v", err)
	}
	if len(last) != 2 || last[0].Source != model.SourceCache {
		t.Fatalf("expected last two decodes oldest first, got %+v", last)
	}

	since, err := st.ListDecodes(ctx, base.Add(time.Second), 0)
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(since) != 3 {
		t.Fatalf("expected 3 decodes since t+1s, got %d", len(since))
	}

	counts, err := st.SourceCounts(ctx)
	if err != nil {
		t.Fatalf("source counts: %v", err)
	}
	if len(counts) != 4 {
		t.Fatalf("expected 4 sources, got %+v", counts)
	}
	if counts[0].Source != model.SourceCache || counts[0].Count != 1 {
		t.Fatalf("expected sorted sources starting with cache, got %+v", counts)
	}
}
