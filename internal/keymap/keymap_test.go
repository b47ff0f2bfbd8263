package keymap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestQWERTYLayout(t *testing.T) {
	km := QWERTY(60, 60)
	q, ok := km.Get('q')
	if !ok {
		t.Fatalf("expected q in layout")
	}
	if q.X != 30 || q.Y != 30 {
		t.Fatalf("unexpected q center (%v,%v)", q.X, q.Y)
	}
	a, _ := km.Get('A')
	if a.X != 45 || a.Y != 90 {
		t.Fatalf("expected staggered a at (45,90), got (%v,%v)", a.X, a.Y)
	}
	if _, ok := km.Get('1'); ok {
		t.Fatalf("expected digits to be unmapped")
	}
	if len(km) != 26 {
		t.Fatalf("expected 26 keys, got %d", len(km))
	}
}

func TestNearest(t *testing.T) {
	km := QWERTY(60, 60)
	r, ok := km.Nearest(32, 28)
	if !ok || r != 'q' {
		t.Fatalf("expected q, got %q", r)
	}
	if _, ok := (Static{}).Nearest(0, 0); ok {
		t.Fatalf("expected empty map to have no nearest key")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.toml")
	content := `[keys.a]
x = 10.0
y = 20.0
width = 40.0
height = 40.0

[keys.B]
x = 50.0
y = 20.0
width = 40.0
height = 40.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write key map: %v", err)
	}
	km, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	b, ok := km.Get('b')
	if !ok || b.X != 50 {
		t.Fatalf("expected lowercased b at x=50, got %+v", b)
	}
}

func TestLoadFileRejectsMultiCharKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.toml")
	if err := os.WriteFile(path, []byte("[keys.ab]\nx = 1.0\n"), 0o644); err != nil {
		t.Fatalf("write key map: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for multi-character key")
	}
}
