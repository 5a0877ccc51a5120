// Package nlp produces tokens, part-of-speech tags and named entities for
// English text using the prose models.
package nlp

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Annotator implements the interface.
var _ driven.Annotator = (*Annotator)(nil)

// Annotator tags text with a model loaded once at construction.
// It holds no mutable state and is safe for concurrent use.
type Annotator struct {
	model *prose.Model
}

// New loads the bundled English tagger and entity models.
func New() (*Annotator, error) {
	seed, err := prose.NewDocument("", prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("load language model: %w", err)
	}
	if seed.Model == nil {
		return nil, fmt.Errorf("load language model: no model bundled")
	}
	return &Annotator{model: seed.Model}, nil
}

// Annotate tokenises text and returns aligned tokens and POS tags plus
// entity spans. Text that cannot be processed yields an empty annotation.
func (a *Annotator) Annotate(text string) domain.Annotation {
	out := domain.Annotation{
		Tokens:        []string{},
		POSTags:       []domain.POSTag{},
		NamedEntities: []domain.NamedEntity{},
	}
	if strings.TrimSpace(text) == "" {
		return out
	}

	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.UsingModel(a.model),
	)
	if err != nil {
		return out
	}

	tokens := doc.Tokens()
	labels := make([]string, len(tokens))
	for i, tok := range tokens {
		out.Tokens = append(out.Tokens, tok.Text)
		out.POSTags = append(out.POSTags, domain.POSTag{Token: tok.Text, Tag: tok.Tag})
		labels[i] = tok.Label
	}
	out.NamedEntities = Spans(out.Tokens, labels)
	return out
}

// Spans groups IOB-labelled tokens into entities. "B-X" opens an entity
// of class X, "I-X" extends an open entity of the same class, anything
// else closes it. A stray "I-X" opens a new entity.
func Spans(tokens, labels []string) []domain.NamedEntity {
	spans := []domain.NamedEntity{}
	open := -1
	class := ""

	closeSpan := func(end int) {
		if open < 0 {
			return
		}
		spans = append(spans, domain.NamedEntity{
			Text:  strings.Join(tokens[open:end], " "),
			Label: class,
			Start: open,
			End:   end,
		})
		open, class = -1, ""
	}

	for i := range tokens {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		prefix, cls, ok := strings.Cut(label, "-")
		switch {
		case ok && prefix == "B":
			closeSpan(i)
			open, class = i, cls
		case ok && prefix == "I" && open >= 0 && cls == class:
		case ok && prefix == "I":
			closeSpan(i)
			open, class = i, cls
		default:
			closeSpan(i)
		}
	}
	closeSpan(len(tokens))
	return spans
}
