// Package wordlist loads frequency-ordered dictionaries.
package wordlist

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed data/*.txt
var builtin embed.FS

// LoadWords reads one word per line from the provided file path. Only the
// first field of each line is used, so "word<TAB>count" exports work as is.
// Words are lowercased and deduplicated, keeping file order.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return readWords(file)
}

// Load returns the dictionary for lang. The file at path is used when it
// exists; otherwise the built-in list for lang, if any. Words rejected by the
// language filter are dropped.
func Load(path, lang string) ([]string, error) {
	var (
		words []string
		err   error
	)
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		words, err = LoadWords(path)
	} else {
		words, err = Builtin(lang)
	}
	if err != nil {
		return nil, err
	}
	keep := FilterForLang(lang)
	out := words[:0]
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no %s words left after filtering", lang)
	}
	return out, nil
}

// Builtin returns the embedded dictionary for lang.
func Builtin(lang string) ([]string, error) {
	data, err := builtin.ReadFile("data/" + strings.ToLower(lang) + ".txt")
	if err != nil {
		return nil, fmt.Errorf("no built-in dictionary for %q", lang)
	}
	return readWords(bytes.NewReader(data))
}

// Langs lists dictionaries available in dir plus the built-in ones, sorted.
func Langs(dir string) ([]string, error) {
	seen := map[string]bool{}
	entries, err := builtin.ReadDir("data")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		seen[strings.TrimSuffix(e.Name(), ".txt")] = true
	}
	files, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read dictionary dir: %w", err)
	}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".txt" {
			continue
		}
		seen[strings.TrimSuffix(f.Name(), ".txt")] = true
	}
	langs := make([]string, 0, len(seen))
	for l := range seen {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs, nil
}

func readWords(r io.Reader) ([]string, error) {
	var words []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		word := strings.ToLower(fields[0])
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return words, nil
}
