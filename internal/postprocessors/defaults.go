package postprocessors

import (
	"github.com/spf13/cast"

	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/postprocessors/annotate"
	"github.com/rag4u/ingest/internal/postprocessors/chunker"
	"github.com/rag4u/ingest/internal/postprocessors/metadata"
)

// RegisterDefaults registers the built-in processors.
// The annotator is shared by every annotate processor the registry builds.
func RegisterDefaults(r *Registry, annotator driven.Annotator) {
	r.Register("chunker", buildChunker)
	r.Register("annotate", func(cfg map[string]any) (driven.PostProcessor, error) {
		var opts []annotate.Option
		if n, ok := intFromConfig(cfg, "workers"); ok && n > 0 {
			opts = append(opts, annotate.WithWorkers(n))
		}
		return annotate.New(annotator, opts...), nil
	})
	r.Register("metadata", func(map[string]any) (driven.PostProcessor, error) {
		return metadata.New(), nil
	})
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): characters per chunk (default: 1000)
//   - overlap (int): overlapping characters between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := intFromConfig(cfg, "chunk_size"); ok && size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := intFromConfig(cfg, "overlap"); ok && overlap >= 0 {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// intFromConfig extracts an int from a generic config map. TOML and
// JSON decoding produce int64, float64 or strings; all are accepted.
func intFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}
	n, err := cast.ToIntE(val)
	if err != nil {
		return 0, false
	}
	return n, true
}
