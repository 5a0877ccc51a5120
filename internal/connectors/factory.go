package connectors

import (
	"fmt"
	"sort"

	"github.com/rag4u/ingest/internal/connectors/filesystem"
	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Filesystem builds a local directory connector.
func Filesystem(root string) driven.Connector {
	return filesystem.New(root)
}

var builders = map[string]driven.ConnectorBuilder{
	filesystem.Type: Filesystem,
}

// Builder returns the builder registered for a connector type.
func Builder(connectorType string) (driven.ConnectorBuilder, error) {
	b, ok := builders[connectorType]
	if !ok {
		return nil, fmt.Errorf("%w: connector type %q", domain.ErrUnsupportedType, connectorType)
	}
	return b, nil
}

// SupportedTypes returns the registered connector types, sorted.
func SupportedTypes() []string {
	types := make([]string, 0, len(builders))
	for t := range builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
