package wordlist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadWordsNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.txt")
	data := "# comment\nThe 100\nthe 90\n\nOf\t80\nand\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, err := LoadWords(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(words, []string{"the", "of", "and"}) {
		t.Fatalf("unexpected words %v", words)
	}
}

func TestLoadWordsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("\n\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadWords(path); err == nil {
		t.Fatal("expected error for empty list")
	}
}

func TestLoadPrefersFileAndFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.txt")
	if err := os.WriteFile(path, []byte("a\nhello\nco-op\nworld\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	words, err := Load(path, "en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(words, []string{"hello", "world"}) {
		t.Fatalf("unexpected words %v", words)
	}
}

func TestLoadFallsBackToBuiltin(t *testing.T) {
	words, err := Load(filepath.Join(t.TempDir(), "missing.txt"), "en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(words) < 100 || words[0] != "the" {
		t.Fatalf("unexpected builtin dictionary: %d words, first %q", len(words), words[0])
	}
	if _, err := Load("", "xx"); err == nil {
		t.Fatal("expected error for unknown language without file")
	}
}

func TestLangsMergesDirectoryAndBuiltin(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"de.txt", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("wort\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	langs, err := Langs(dir)
	if err != nil {
		t.Fatalf("langs: %v", err)
	}
	if !reflect.DeepEqual(langs, []string{"de", "en"}) {
		t.Fatalf("unexpected langs %v", langs)
	}
	if langs, err := Langs(filepath.Join(dir, "missing")); err != nil || len(langs) != 1 {
		t.Fatalf("expected builtin only for missing dir, got %v %v", langs, err)
	}
}
