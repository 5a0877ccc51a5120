package domain

import (
	"fmt"
	"strings"
)

// Metadata keys carried by every Record.
const (
	MetaSource        = "source"
	MetaPage          = "page"
	MetaTokens        = "tokens"
	MetaPOSTags       = "pos_tags"
	MetaNamedEntities = "named_entities"
	MetaFileHash      = "file_hash"
	MetaSourceHash    = "source_hash"
	MetaMediaType     = "media_type"
	MetaChunk         = "chunk"
)

// KeyField is the dotted path of the upsert key inside a stored record.
const KeyField = "metadata." + MetaFileHash

// Record is the persisted unit: one chunk of text plus its metadata.
// Records are only ever replaced whole, never merged.
type Record struct {
	// ID is the store-assigned identifier. Empty until persisted.
	ID string `json:"_id,omitempty"`

	// Content is the chunk text. Never blank.
	Content string `json:"content"`

	// Metadata holds provenance and linguistic annotations.
	// After normalisation every value is a scalar, except the
	// annotation keys which keep their structured form.
	Metadata map[string]any `json:"metadata"`
}

// FileHash returns the record's upsert key.
func (r Record) FileHash() string {
	s, _ := r.Metadata[MetaFileHash].(string)
	return s
}

// Source returns the originating file path.
func (r Record) Source() string {
	s, _ := r.Metadata[MetaSource].(string)
	return s
}

// Validate checks the record contract: non-blank content and, when the
// annotation is present in typed form, aligned tokens and POS tags.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return fmt.Errorf("%w: empty content", ErrInvalidRecord)
	}
	if r.Metadata == nil {
		return fmt.Errorf("%w: missing metadata", ErrInvalidRecord)
	}
	tokens, tokOK := r.Metadata[MetaTokens].([]string)
	tags, tagOK := r.Metadata[MetaPOSTags].([]POSTag)
	if tokOK && tagOK {
		a := Annotation{Tokens: tokens, POSTags: tags}
		if !a.Aligned() {
			return fmt.Errorf("%w: tokens and pos_tags are not aligned", ErrInvalidRecord)
		}
	}
	return nil
}

// RecordKey derives the per-chunk upsert key from a file digest.
// Byte-identical files produce identical keys.
func RecordKey(digest string, position int) string {
	return fmt.Sprintf("%s-%d", digest, position)
}

// ScoredRecord pairs a record with its full-text relevance score.
type ScoredRecord struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}
