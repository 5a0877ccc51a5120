// Package chunker splits extracted text into bounded, overlapping chunks.
//
// Text is cut on the coarsest separator that occurs in an oversize span
// (paragraphs, then lines, sentences, list items, whitespace and finally
// single characters), the pieces are greedily merged back up to the chunk
// budget, and every chunk after the first is prefixed with the tail of the
// text before it. Removing each chunk's overlap prefix and concatenating
// the rest reproduces the input exactly.
package chunker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Separator is one level of the split hierarchy.
type Separator struct {
	Name    string
	Pattern *regexp.Regexp
	// KeepWithNext attaches the matched text to the following piece
	// instead of the preceding one.
	KeepWithNext bool
}

// DefaultSeparators returns the split hierarchy, coarsest first.
func DefaultSeparators() []Separator {
	return []Separator{
		{Name: "paragraph", Pattern: regexp.MustCompile(`\n\n+`)},
		{Name: "line", Pattern: regexp.MustCompile(`\n`)},
		{Name: "sentence", Pattern: regexp.MustCompile(`[.!?]+\s*`)},
		{Name: "list", Pattern: regexp.MustCompile(`(?m)^[ \t]*(?:\d+[.)]|[-*•])[ \t]`), KeepWithNext: true},
		{Name: "whitespace", Pattern: regexp.MustCompile(`\s+`)},
	}
}

// Processor splits document segments into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []Separator
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the split hierarchy.
// Single-character splitting always remains as the last resort.
func WithSeparators(seps ...Separator) Option {
	return func(p *Processor) {
		p.separators = seps
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators(),
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document segments into chunks and stamps each with
// its provenance. Input chunks are ignored. Chunks whose own text (the
// part after the overlap prefix) is blank are dropped.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	pieces := p.Split(doc.Segments)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for _, piece := range pieces {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(piece.Text[piece.Overlap:]) == "" {
			continue
		}

		pos := len(chunks)
		chunks = append(chunks, domain.Chunk{
			Position: pos,
			Page:     piece.Page,
			Content:  piece.Text,
			Overlap:  piece.Overlap,
			Metadata: provenance(doc, piece.Page, pos),
		})
	}
	return chunks, nil
}

func provenance(doc *domain.Document, page, pos int) map[string]any {
	m := map[string]any{
		domain.MetaSource:    doc.Path,
		domain.MetaPage:      page,
		domain.MetaChunk:     pos,
		domain.MetaMediaType: doc.MediaType,
	}
	if doc.Digest != "" {
		m[domain.MetaSourceHash] = doc.Digest
		m[domain.MetaFileHash] = domain.RecordKey(doc.Digest, pos)
	}
	return m
}

// Flatten normalises chunker input. It accepts a string, a slice of
// strings (one page each) or a slice of segments.
func Flatten(v any) ([]domain.Segment, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []domain.Segment{{Text: t}}, nil
	case []string:
		segs := make([]domain.Segment, len(t))
		for i, s := range t {
			segs[i] = domain.Segment{Text: s, Page: i}
		}
		return segs, nil
	case []domain.Segment:
		return t, nil
	case domain.Extraction:
		return t.Segments, nil
	default:
		return nil, fmt.Errorf("%w: cannot chunk %T", domain.ErrInvalidInput, v)
	}
}

// Split chunks every segment independently. Each output segment keeps the
// page of its source segment, holds at most chunkSize characters and
// records in Overlap how many leading bytes repeat earlier text.
func (p *Processor) Split(segments []domain.Segment) []domain.Segment {
	budget := p.chunkSize - p.overlap
	if budget < 1 {
		budget = 1
	}

	var out []domain.Segment
	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		bodies := merge(p.atoms(seg.Text, 0, budget), budget)

		start := 0
		for i, body := range bodies {
			prefix := ""
			if i > 0 {
				prefix = overlapPrefix(seg.Text[:start], p.overlap)
			}
			out = append(out, domain.Segment{
				Text:    prefix + body,
				Page:    seg.Page,
				Overlap: len(prefix),
			})
			start += len(body)
		}
	}
	return out
}

// atoms cuts text into pieces of at most budget runes whose concatenation
// is text.
func (p *Processor) atoms(text string, level, budget int) []string {
	if utf8.RuneCountInString(text) <= budget {
		return []string{text}
	}
	if level >= len(p.separators) {
		return splitRunes(text, budget)
	}

	pieces := cut(text, p.separators[level])
	if len(pieces) <= 1 {
		return p.atoms(text, level+1, budget)
	}

	var out []string
	for _, piece := range pieces {
		out = append(out, p.atoms(piece, level+1, budget)...)
	}
	return out
}

// cut splits text at every match of sep, keeping the matched text.
func cut(text string, sep Separator) []string {
	var pieces []string
	last := 0
	for _, m := range sep.Pattern.FindAllStringIndex(text, -1) {
		at := m[1]
		if sep.KeepWithNext {
			at = m[0]
		}
		if at <= last || at >= len(text) {
			continue
		}
		pieces = append(pieces, text[last:at])
		last = at
	}
	return append(pieces, text[last:])
}

func splitRunes(text string, n int) []string {
	var out []string
	for len(text) > 0 {
		i, count := 0, 0
		for i < len(text) && count < n {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			count++
		}
		out = append(out, text[:i])
		text = text[i:]
	}
	return out
}

// merge greedily packs adjacent atoms into bodies of at most budget runes.
func merge(atoms []string, budget int) []string {
	var (
		out    []string
		cur    strings.Builder
		curLen int
	)
	for _, a := range atoms {
		n := utf8.RuneCountInString(a)
		if curLen > 0 && curLen+n > budget {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
		cur.WriteString(a)
		curLen += n
	}
	if curLen > 0 {
		out = append(out, cur.String())
	}
	return out
}

// overlapPrefix returns up to n trailing runes of before, moved forward to
// start at a word when one begins inside the window.
func overlapPrefix(before string, n int) string {
	if n <= 0 || before == "" {
		return ""
	}

	i := len(before)
	for count := 0; i > 0 && count < n; count++ {
		_, size := utf8.DecodeLastRuneInString(before[:i])
		i -= size
	}
	tail := before[i:]

	midWord := i > 0 && !isSpaceBefore(before, i) && !startsWithSpace(tail)
	if midWord {
		if j := strings.IndexFunc(tail, unicode.IsSpace); j >= 0 {
			tail = tail[j:]
		}
	}
	return strings.TrimLeftFunc(tail, unicode.IsSpace)
}

func isSpaceBefore(s string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsSpace(r)
}

func startsWithSpace(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsSpace(r)
}
