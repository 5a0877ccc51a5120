package extractors

import (
	"context"
	"fmt"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/detector"
	"github.com/rag4u/ingest/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Predicate decides whether a rule applies. mediaType is canonical and
// ext is the lowercase file extension without the dot.
type Predicate func(mediaType, ext string) bool

// Rule pairs a predicate with the extractor it selects.
type Rule struct {
	Match     Predicate
	Extractor driven.Extractor
}

// Registry dispatches files to extractors through ordered rules.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a rule. Earlier rules take precedence.
func (r *Registry) Register(match Predicate, e driven.Extractor) {
	r.rules = append(r.rules, Rule{Match: match, Extractor: e})
}

// Rules returns the registered rules in evaluation order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Lookup returns the first extractor whose rule matches, or nil.
func (r *Registry) Lookup(path, mediaType string) driven.Extractor {
	mt := detector.Canonical(mediaType)
	ext := detector.Extension(path)
	for _, rule := range r.rules {
		if rule.Match(mt, ext) {
			return rule.Extractor
		}
	}
	return nil
}

// Supports reports whether any rule matches.
func (r *Registry) Supports(path, mediaType string) bool {
	return r.Lookup(path, mediaType) != nil
}

// Extract runs the matching extractor. It never returns an error and never
// panics: unsupported types, extractor errors and extractor panics all come
// back as a failed Extraction, after one warning naming the file.
func (r *Registry) Extract(ctx context.Context, path, mediaType string) domain.Extraction {
	res := r.extract(ctx, path, mediaType)
	if res.Failed() {
		logger.Warn("skipping %s (%s): %v", path, mediaType, res.Err)
	}
	return res
}

func (r *Registry) extract(ctx context.Context, path, mediaType string) (res domain.Extraction) {
	if err := ctx.Err(); err != nil {
		return domain.Extraction{Err: err}
	}

	e := r.Lookup(path, mediaType)
	if e == nil {
		return domain.Extraction{Err: fmt.Errorf("%w: %s", domain.ErrUnsupportedType, mediaType)}
	}

	defer func() {
		if p := recover(); p != nil {
			res = domain.Extraction{Err: fmt.Errorf("%w: %s extractor panicked: %v", domain.ErrCorruptFile, e.Name(), p)}
		}
	}()

	logger.Debug("extracting %s with %s", path, e.Name())
	segs, err := e.Extract(ctx, path)
	if err != nil {
		return domain.Extraction{Err: fmt.Errorf("%s: %w", e.Name(), err)}
	}
	return domain.Extraction{Segments: segs}
}

// Is returns a predicate matching exactly one canonical media type.
func Is(mediaType string) Predicate {
	return func(mt, _ string) bool {
		return mt == mediaType
	}
}

// IsOrContainer matches mediaType, or a generic container type when the
// extension agrees. Sniffers report OOXML files as application/zip and
// legacy Office files as application/x-ole-storage when they cannot see
// deeper into the container.
func IsOrContainer(mediaType, ext string, containers ...string) Predicate {
	return func(mt, e string) bool {
		if mt == mediaType {
			return true
		}
		if e != ext {
			return false
		}
		for _, c := range containers {
			if mt == c {
				return true
			}
		}
		return false
	}
}
