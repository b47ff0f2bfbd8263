package stats

import (
	"io"
	"sort"
	"strconv"

	"github.com/verte-zerg/glide/internal/model"
)

// WordCount is a word with the number of times it was decoded.
type WordCount struct {
	Word  string
	Count int
}

// TopWords returns the n words decoded most often from gestures.
func TopWords(recs []model.DecodeRecord, n int) []WordCount {
	if n <= 0 || len(recs) == 0 {
		return nil
	}
	counts := map[string]int{}
	for _, r := range recs {
		if r.Word == "" || r.Source == model.SourceTap {
			continue
		}
		counts[r.Word]++
	}
	items := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		items = append(items, WordCount{Word: w, Count: c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Word < items[j].Word
		}
		return items[i].Count > items[j].Count
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// RenderTopWords prints the most decoded words with their counts.
func RenderTopWords(w io.Writer, words []WordCount) error {
	if len(words) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(words))
	for _, wc := range words {
		rows = append(rows, []string{wc.Word, strconv.Itoa(wc.Count)})
	}
	lines := formatTable([]string{"Word", "Count"}, rows, map[int]bool{1: true})
	return writeLines(w, "Top words", lines, 0)
}
