// Package ppt extracts text atoms from PowerPoint 97-2003 presentations.
package ppt

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/extractors/ole"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const (
	streamName = "PowerPoint Document"

	recTextChars = 0x0FA0
	recTextBytes = 0x0FA8

	headerLen     = 8
	containerVers = 0xF
)

// Extractor handles PPT presentations.
type Extractor struct{}

// New creates a new PPT extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "ppt"
}

// Extract joins all text atoms of the presentation with newlines.
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

	text := strings.Join(TextAtoms(stream), "\n")
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyExtraction
	}
	return []domain.Segment{{Text: text}}, nil
}

// TextAtoms walks the record tree and returns the text of every
// TextCharsAtom and TextBytesAtom in stream order. Containers are
// descended into; other atoms are skipped.
func TextAtoms(stream []byte) []string {
	var out []string
	for off := 0; off+headerLen <= len(stream); {
		verInst := binary.LittleEndian.Uint16(stream[off:])
		recType := binary.LittleEndian.Uint16(stream[off+2:])
		recLen := int(binary.LittleEndian.Uint32(stream[off+4:]))
		body := off + headerLen

		if verInst&0x000F == containerVers {
			off = body
			continue
		}
		if recLen < 0 || body+recLen > len(stream) {
			break
		}

		data := stream[body : body+recLen]
		var s string
		switch recType {
		case recTextChars:
			s = ole.DecodeUTF16(data)
		case recTextBytes:
			s = ole.DecodeANSI(data)
		}
		if s = strings.TrimSpace(strings.ReplaceAll(s, "\r", "\n")); s != "" {
			out = append(out, s)
		}
		off = body + recLen
	}
	return out
}
