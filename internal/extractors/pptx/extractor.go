// Package pptx extracts shape text from PowerPoint 2007+ presentations,
// one segment per slide.
package pptx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const drawingML = "http://schemas.openxmlformats.org/drawingml/2006/main"

var slideRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Extractor handles PPTX presentations.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "pptx"
}

type slideFile struct {
	num  int
	file *zip.File
}

// Extract returns one segment per slide in slide order, with Page set to
// the zero-based slide index. A presentation without slides yields a
// single empty segment.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Segment, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}
	defer zr.Close()

	var slides []slideFile
	for _, f := range zr.File {
		m := slideRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slideFile{num: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	if len(slides) == 0 {
		return []domain.Segment{{Text: "", Page: 0}}, nil
	}

	segs := make([]domain.Segment, 0, len(slides))
	for i, s := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := slideText(s.file)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", s.num, err)
		}
		segs = append(segs, domain.Segment{Text: text, Page: i})
	}
	return segs, nil
}

func slideText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}
	defer rc.Close()
	return ShapeText(rc)
}

// ShapeText returns the text of every shape on a slide. Paragraphs are
// joined with newlines within a shape, and shapes with newlines between
// them. Shapes without text are skipped.
func ShapeText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		shapes  []string
		paras   []string
		para    strings.Builder
		depth   int // nesting of p:sp elements
		inText  bool
		inParag bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "sp" && t.Name.Space != drawingML:
				depth++
				if depth == 1 {
					paras = paras[:0]
				}
			case depth > 0 && t.Name.Space == drawingML && t.Name.Local == "p":
				inParag = true
				para.Reset()
			case inParag && t.Name.Space == drawingML && t.Name.Local == "t":
				inText = true
			case inParag && t.Name.Space == drawingML && t.Name.Local == "br":
				para.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		case xml.EndElement:
			switch {
			case t.Name.Space == drawingML && t.Name.Local == "t":
				inText = false
			case inParag && t.Name.Space == drawingML && t.Name.Local == "p":
				inParag = false
				paras = append(paras, para.String())
			case t.Name.Local == "sp" && t.Name.Space != drawingML && depth > 0:
				depth--
				if depth == 0 {
					if text := strings.Join(paras, "\n"); strings.TrimSpace(text) != "" {
						shapes = append(shapes, text)
					}
				}
			}
		}
	}
	return strings.Join(shapes, "\n"), nil
}
