// Package docx extracts paragraph text from Word 2007+ documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "docx"
}

// Extract joins the document's paragraphs with newlines into one segment.
// A file that is bare XML rather than a zip package has all its text
// nodes joined instead.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadable, err)
	}

	var text string
	reader, zipErr := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	switch {
	case zipErr == nil:
		text, err = extractDocumentText(reader)
		if err != nil {
			return nil, err
		}
	case bytes.HasPrefix(data, []byte("<?xml")):
		text, err = xmlText(data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: not a zip package: %v", domain.ErrCorruptFile, zipErr)
	}

	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyExtraction
	}
	return []domain.Segment{{Text: text}}, nil
}

// extractDocumentText extracts text from word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
		}

		return parseDocumentXML(content)
	}
	return "", fmt.Errorf("%w: missing word/document.xml", domain.ErrCorruptFile)
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML extracts paragraph text, one paragraph per line.
func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, text := range r.Text {
				result.WriteString(text.Content)
			}
		}
	}

	return result.String(), nil
}

// xmlText joins every non-blank text node of an arbitrary XML document.
func xmlText(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var parts []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
		}
		if cd, ok := tok.(xml.CharData); ok {
			if s := strings.TrimSpace(string(cd)); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "\n"), nil
}
