// Package storage holds helpers shared by the document store adapters.
package storage

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rag4u/ingest/internal/core/domain"
)

// Filter and key field paths understood by every adapter.
const (
	FieldID        = "_id"
	FieldContent   = "content"
	MetadataPrefix = "metadata."
)

var collectionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidateCollection rejects names that are not safe identifiers.
func ValidateCollection(name string) error {
	if !collectionName.MatchString(name) {
		return fmt.Errorf("%w: invalid collection name %q", domain.ErrInvalidInput, name)
	}
	return nil
}

// NewID returns a fresh record identifier: 24 lowercase hex characters,
// the same shape as a MongoDB ObjectID.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// NewKey returns a replacement upsert key for records that have none.
func NewKey() string {
	return uuid.NewString()
}

// Field returns the value at a dotted path ("content", "_id",
// "metadata.file_hash").
func Field(rec domain.Record, path string) (any, bool) {
	switch {
	case path == FieldID:
		return rec.ID, rec.ID != ""
	case path == FieldContent:
		return rec.Content, true
	case strings.HasPrefix(path, MetadataPrefix):
		v, ok := rec.Metadata[strings.TrimPrefix(path, MetadataPrefix)]
		return v, ok
	}
	return nil, false
}

// SetField writes value at a dotted path. Only "_id", "content" and
// "metadata.<key>" are writable.
func SetField(rec *domain.Record, path string, value string) error {
	switch {
	case path == FieldID:
		rec.ID = value
	case path == FieldContent:
		rec.Content = value
	case strings.HasPrefix(path, MetadataPrefix) && len(path) > len(MetadataPrefix):
		if rec.Metadata == nil {
			rec.Metadata = make(map[string]any)
		}
		rec.Metadata[strings.TrimPrefix(path, MetadataPrefix)] = value
	default:
		return fmt.Errorf("%w: unsupported field %q", domain.ErrInvalidInput, path)
	}
	return nil
}

// Clone copies a record so later changes to the caller's metadata map
// do not leak into the store.
func Clone(rec domain.Record) domain.Record {
	out := domain.Record{ID: rec.ID, Content: rec.Content}
	if rec.Metadata != nil {
		out.Metadata = make(map[string]any, len(rec.Metadata))
		for k, v := range rec.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Matches reports whether rec satisfies every equality condition in filter.
func Matches(rec domain.Record, filter map[string]any) bool {
	for path, want := range filter {
		got, ok := Field(rec, path)
		if !ok || !Equal(got, want) {
			return false
		}
	}
	return true
}

// Equal compares two stored values. Numbers compare by value regardless
// of their Go kind.
func Equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if isNumber(a) && isNumber(b) {
		return cast.ToFloat64(a) == cast.ToFloat64(b)
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// Terms splits a free-text query into lowercase words.
func Terms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
