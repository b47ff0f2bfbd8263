package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/glide/internal/model"
)

const timeLayout = "2006-01-02 15:04"

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		if rightAlignCols[i] {
			b.WriteString(runewidth.FillLeft(cell, width))
		} else if i < len(widths)-1 {
			b.WriteString(runewidth.FillRight(cell, width))
		} else {
			b.WriteString(cell)
		}
	}
	return b.String()
}

func writeLines(w io.Writer, title string, lines []string, maxWidth int) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, line := range lines {
		if maxWidth > 0 {
			line = runewidth.Truncate(line, maxWidth, "…")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderPatternTable prints learned patterns, truncating lines to maxWidth
// display columns when maxWidth > 0.
func RenderPatternTable(w io.Writer, entries []model.PatternEntry, maxWidth int) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No learned patterns.")
		return err
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Sequence, e.Word, e.UpdatedAt.Local().Format(timeLayout)})
	}
	lines := formatTable([]string{"Sequence", "Word", "Updated"}, rows, nil)
	return writeLines(w, fmt.Sprintf("Learned patterns (%d)", len(entries)), lines, maxWidth)
}

// RenderDecodeTable prints recent decode records.
func RenderDecodeTable(w io.Writer, recs []model.DecodeRecord, maxWidth int) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		word := r.Word
		if word == "" {
			word = "-"
		}
		rows = append(rows, []string{
			r.At.Local().Format(timeLayout),
			string(r.Source),
			r.Sequence,
			r.Anchors,
			fmt.Sprintf("%d", r.Candidates),
			word,
		})
	}
	lines := formatTable([]string{"At", "Source", "Sequence", "Anchors", "Candidates", "Word"}, rows, map[int]bool{4: true})
	return writeLines(w, "Recent decodes", lines, maxWidth)
}
