package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/verte-zerg/glide/internal/model"
)

// MissedSequences returns up to top sequences that most often resolved to no
// prediction, ties broken alphabetically.
func MissedSequences(recs []model.DecodeRecord, top int) []string {
	misses := map[string]int{}
	for _, r := range recs {
		if r.Source == model.SourceNone && r.Sequence != "" {
			misses[r.Sequence]++
		}
	}
	seqs := make([]string, 0, len(misses))
	for s := range misses {
		seqs = append(seqs, s)
	}
	sort.Slice(seqs, func(i, j int) bool {
		if misses[seqs[i]] == misses[seqs[j]] {
			return seqs[i] < seqs[j]
		}
		return misses[seqs[i]] > misses[seqs[j]]
	})
	if top > 0 && top < len(seqs) {
		seqs = seqs[:top]
	}
	return seqs
}

// RenderMissed prints the sequences that most often found no word.
func RenderMissed(w io.Writer, seqs []string) error {
	if len(seqs) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Often missed: %s\n\n", strings.Join(seqs, " "))
	return err
}
