// Package doc extracts text from legacy Word 97-2003 binary documents.
package doc

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/extractors/ole"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	streamName = "WordDocument"
	wIdent     = 0xA5EC

	offFcMin = 0x18
	offFcMac = 0x1C
)

// Extractor handles DOC documents.
type Extractor struct{}

// New creates a new DOC extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "doc"
}

// Extract reads the WordDocument stream and decodes its text range.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadable, err)
	}
	defer f.Close()

	stream, err := ole.ReadStream(f, streamName)
	if err != nil {
		return nil, err
	}

	text := clean(ole.Decode(textRange(stream)))
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyExtraction
	}
	return []domain.Segment{{Text: text}}, nil
}

// textRange returns the document text bytes. The FIB range is used when it
// is plausible; otherwise everything after the FIB is returned.
func textRange(stream []byte) []byte {
	if len(stream) < offFcMac+4 || binary.LittleEndian.Uint16(stream) != wIdent {
		return stream
	}
	fcMin := int(binary.LittleEndian.Uint32(stream[offFcMin:]))
	fcMac := int(binary.LittleEndian.Uint32(stream[offFcMac:]))
	if fcMin > 0 && fcMac > fcMin && fcMac <= len(stream) {
		return stream[fcMin:fcMac]
	}
	if len(stream) > 0x200 {
		return stream[0x200:]
	}
	return nil
}

// clean maps Word control characters to whitespace and drops the rest.
func clean(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\r' || r == 0x0B || r == 0x0C:
			sb.WriteByte('\n')
		case r == 0x07:
			sb.WriteByte('\t')
		case r == '\n' || r == '\t':
			sb.WriteRune(r)
		case unicode.IsControl(r):
		default:
			sb.WriteRune(r)
		}
	}
	return strings.TrimRight(collapseBlankLines(sb.String()), "\n\t ")
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
