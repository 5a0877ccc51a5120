// Package pdf extracts text from PDF files.
//
// The primary path uses ledongthuc/pdf and concatenates page text in page
// order with no separator. When that fails or yields nothing, the raw
// content streams are parsed with pdfcpu and the text-showing operators
// (Tj, TJ, ') are decoded.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

var disableConfigDir sync.Once

// Extractor handles PDF documents.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pdf"
}

// Extract returns the whole document as a single segment on page 0.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Segment, error) {
	text, err := plainText(path)
	if err == nil && strings.TrimSpace(text) != "" {
		return []domain.Segment{{Text: text}}, nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}

	fallback, fbErr := contentStreamText(path)
	if fbErr == nil && strings.TrimSpace(fallback) != "" {
		return []domain.Segment{{Text: fallback}}, nil
	}

	switch {
	case err != nil:
		return nil, err
	case fbErr != nil:
		return nil, fbErr
	default:
		return nil, fmt.Errorf("%w: no text layer", domain.ErrEmptyExtraction)
	}
}

// plainText reads page text with ledongthuc/pdf.
func plainText(path string) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", domain.ErrCorruptFile, p)
		}
	}()

	f, r, err := lpdf.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return "", fmt.Errorf("%w: %v", domain.ErrUnreadable, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(t)
	}
	return sb.String(), nil
}

// contentStreamText parses page content streams with pdfcpu.
func contentStreamText(path string) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", domain.ErrCorruptFile, p)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnreadable, err)
	}
	defer f.Close()

	ctx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		sb.WriteString(streamText(data))
	}
	return sb.String(), nil
}

// literalRe matches PDF string literals: (text).
var literalRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// streamText decodes the text-showing operators of a content stream.
func streamText(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range literalRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodeLiteral(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range literalRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodeLiteral(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// decodeLiteral resolves backslash escapes in a PDF string literal.
func decodeLiteral(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			val := int(c - '0')
			for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
