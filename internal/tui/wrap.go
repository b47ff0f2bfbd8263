package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes styles committed text, highlighting the pending word that
// starts at rune index pendingStart (-1 when none) and appending a cursor.
func buildStyledRunes(text []rune, pendingStart int) []styledRune {
	out := make([]styledRune, 0, len(text)+1)
	for i, r := range text {
		style := committedStyle
		if pendingStart >= 0 && i >= pendingStart {
			style = pendingWordStyle
		}
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	out = append(out, styledRune{s: cursorStyle.Render(" "), width: 1, isSpace: true})
	return out
}

// pendingStartIndex returns the rune index where pending begins at the end of
// text, or -1.
func pendingStartIndex(text []rune, pending string) int {
	if pending == "" {
		return -1
	}
	p := []rune(pending)
	if len(p) > len(text) || string(text[len(text)-len(p):]) != pending {
		return -1
	}
	return len(text) - len(p)
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits width, or hard
// breaks words longer than a line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpace := -1

	flush := func(upTo, resumeAt int) {
		out.WriteString(renderStyledRunes(line[:upTo]))
		out.WriteRune('\n')
		line = append([]styledRune{}, line[resumeAt:]...)
		lineWidth = lineWidthOf(line)
		lastSpace = lastSpaceIndex(line)
	}

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if item.isSpace {
				// A full line breaks at the overflowing space; a trailing cursor moves down.
				flush(len(line), len(line))
				if i < len(runes)-1 {
					i++
				}
				continue
			}
			if lastSpace >= 0 {
				flush(lastSpace, lastSpace+1)
			} else {
				flush(len(line), len(line))
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
