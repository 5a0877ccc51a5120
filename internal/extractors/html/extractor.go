// Package html extracts readable text from HTML pages.
package html

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Head:     true,
	atom.Svg:      true,
	atom.Template: true,
}

// block elements start a new line.
var block = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Table: true,
	atom.Section: true, atom.Article: true,
}

var multiSpaces = regexp.MustCompile(`[ \t\r\f\v]+`)

// Extractor handles HTML files.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "html"
}

// Extract returns the visible text of the page as one segment.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadable, err)
	}

	text, err := Text(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}
	if text == "" {
		return nil, domain.ErrEmptyExtraction
	}
	return []domain.Segment{{Text: text}}, nil
}

// Text strips markup from r. Lines are trimmed and empty lines dropped.
func Text(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var b strings.Builder
	depth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return tidy(b.String()), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if skipped[tok.DataAtom] && tok.Type == html.StartTagToken {
				depth++
			}
			if block[tok.DataAtom] {
				b.WriteByte('\n')
			}

		case html.EndTagToken:
			tok := z.Token()
			if skipped[tok.DataAtom] && depth > 0 {
				depth--
			}
			if block[tok.DataAtom] {
				b.WriteByte('\n')
			}

		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(multiSpaces.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
