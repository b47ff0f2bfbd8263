package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/glide/internal/keymap"
	"github.com/verte-zerg/glide/internal/model"
	"github.com/verte-zerg/glide/internal/scorer"
)

func newTestModel(sc scorer.Scorer) *Model {
	return NewModel(Config{
		Keys:   keymap.QWERTY(60, 60),
		Scorer: sc,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func execScore(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a scorer command")
	}
	msg, ok := cmd().(scoreMsg)
	if !ok {
		t.Fatal("expected a score message")
	}
	m.Update(msg)
}

func TestModelCommitScoresGesture(t *testing.T) {
	var got scorer.Request
	sc := scorer.Func(func(_ context.Context, req scorer.Request) (model.Prediction, error) {
		got = req
		return model.Prediction{Words: []string{"tree", "tee"}}, nil
	})
	m := newTestModel(sc)

	_, cmd := m.Update(runes("tree"))
	if cmd == nil {
		t.Fatal("expected idle tick to be scheduled")
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	execScore(t, m, cmd)

	if got.Sequence != "tre" {
		t.Fatalf("expected sequence tre, got %q", got.Sequence)
	}
	if text := m.session.Text(); text != "tree" {
		t.Fatalf("expected tree, got %q", text)
	}
	if !strings.Contains(m.status, "tree") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelTabCorrectsToNextPrediction(t *testing.T) {
	sc := scorer.Func(func(context.Context, scorer.Request) (model.Prediction, error) {
		return model.Prediction{Words: []string{"tree", "tee"}}, nil
	})
	m := newTestModel(sc)
	m.Update(runes("tree"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	execScore(t, m, cmd)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if text := m.session.Text(); text != "tee" {
		t.Fatalf("expected tee after correction, got %q", text)
	}
}

func TestModelIdleTickResolvesTap(t *testing.T) {
	m := newTestModel(nil)
	m.Update(runes("Hi"))

	m.Update(tickMsg{seq: m.tickSeq - 1, at: time.Now().Add(time.Hour)})
	if text := m.session.Text(); text != "" {
		t.Fatalf("expected stale tick ignored, got %q", text)
	}
	m.Update(tickMsg{seq: m.tickSeq, at: time.Now().Add(time.Hour)})
	if text := m.session.Text(); text != "Hi" {
		t.Fatalf("expected literal Hi, got %q", text)
	}
}

func TestModelScorerFailureCommitsNothing(t *testing.T) {
	sc := scorer.Func(func(context.Context, scorer.Request) (model.Prediction, error) {
		return model.Prediction{}, errors.New("offline")
	})
	m := newTestModel(sc)
	m.Update(runes("tree"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	execScore(t, m, cmd)

	if text := m.session.Text(); text != "" {
		t.Fatalf("expected nothing committed, got %q", text)
	}
	if !m.statusErr {
		t.Fatalf("expected error status")
	}
}

func TestModelKeyDownSupersedesInFlightCall(t *testing.T) {
	sc := scorer.Func(func(context.Context, scorer.Request) (model.Prediction, error) {
		return model.Prediction{Words: []string{"tree"}}, nil
	})
	m := newTestModel(sc)
	m.Update(runes("tree"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.cancelJob == nil {
		t.Fatal("expected in-flight call")
	}
	m.Update(runes("h"))
	if m.cancelJob != nil {
		t.Fatal("expected superseded call to be cancelled")
	}
	execScore(t, m, cmd)
	if text := m.session.Text(); text != "" {
		t.Fatalf("expected stale result dropped, got %q", text)
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestModelViewShowsTextAndMode(t *testing.T) {
	m := newTestModel(nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m.Update(runes("ok"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	out := m.View()
	if !strings.Contains(out, "idle") {
		t.Fatalf("expected mode in view")
	}
	if !strings.Contains(out, "ok") {
		t.Fatalf("expected committed text in view")
	}
}

func TestNextAlternative(t *testing.T) {
	if _, ok := nextAlternative(nextView("", nil, nil)); ok {
		t.Fatal("expected no alternative without pending word")
	}
	if w, ok := nextAlternative(nextView("tree", nil, []string{"tree", "tee"})); !ok || w != "tee" {
		t.Fatalf("expected tee from candidates, got %q", w)
	}
	if w, ok := nextAlternative(nextView("tree", []string{"tree", "true"}, []string{"tee"})); !ok || w != "true" {
		t.Fatalf("expected prediction first, got %q", w)
	}
}
