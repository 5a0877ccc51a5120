// Package filenames normalises file names before ingestion so that the
// stored source paths stay ASCII-friendly and free of whitespace.
package filenames

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rag4u/ingest/internal/logger"
)

var whitespace = regexp.MustCompile(`\s+`)

// Rename records one file moved by RenameDir.
type Rename struct {
	From string
	To   string
}

// RemoveDiacritics decomposes s (NFKD) and drops combining marks.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize strips diacritics and replaces whitespace runs with "_".
func Normalize(name string) string {
	return whitespace.ReplaceAllString(RemoveDiacritics(name), "_")
}

// RenameDir normalises the names of regular files directly inside dir.
// Subdirectories are left alone. A file whose normalised name is already
// taken is skipped with a warning.
func RenameDir(dir string) ([]Rename, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var renamed []Rename
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		target := Normalize(name)
		if target == name {
			continue
		}

		from := filepath.Join(dir, name)
		to := filepath.Join(dir, target)
		if _, err := os.Lstat(to); err == nil {
			logger.Warn("Not renaming %s: %s already exists", from, target)
			continue
		}
		if err := os.Rename(from, to); err != nil {
			return renamed, fmt.Errorf("renaming %s: %w", from, err)
		}
		logger.Debug("Renamed %s -> %s", name, target)
		renamed = append(renamed, Rename{From: from, To: to})
	}
	return renamed, nil
}
