package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/glide/internal/model"
	"github.com/verte-zerg/glide/internal/session"
)

type keyMark int

const (
	markNone keyMark = iota
	markGhost
	markTouched
	markAnchor
)

// rowIndent mirrors the physical stagger of the letter rows.
var rowIndent = []int{0, 1, 3}

func keyMarks(view session.View) map[rune]keyMark {
	marks := map[rune]keyMark{}
	set := func(r rune, m keyMark) {
		if marks[r] < m {
			marks[r] = m
		}
	}
	for _, p := range view.Ghost {
		set(p.Key, markGhost)
	}
	keys := view.Keys
	if keys == "" {
		keys = view.Signature.Sequence
	}
	for _, r := range keys {
		set(r, markTouched)
	}
	if view.Keys == "" {
		for _, r := range view.Signature.Anchors {
			set(r, markAnchor)
		}
	}
	return marks
}

func renderKeyboard(rows []string, marks map[rune]keyMark) string {
	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		indent := 0
		if i < len(rowIndent) {
			indent = rowIndent[i]
		}
		var b strings.Builder
		b.WriteString(strings.Repeat(" ", indent))
		for j, r := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(keyStyle(marks[r]).Render(keyLabel(r)))
		}
		lines = append(lines, b.String())
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func keyLabel(r rune) string {
	label := string(r)
	if runewidth.RuneWidth(r) < 2 {
		label += " "
	}
	return " " + label
}

func keyStyle(m keyMark) lipgloss.Style {
	switch m {
	case markAnchor:
		return anchorKeyStyle
	case markTouched:
		return touchedKeyStyle
	case markGhost:
		return ghostKeyStyle
	default:
		return idleKeyStyle
	}
}

func ghostWord(points []model.Point) string {
	var b strings.Builder
	for _, p := range points {
		b.WriteRune(p.OriginalKey)
	}
	return b.String()
}
