package driven

import (
	"context"
	"errors"

	"github.com/rag4u/ingest/internal/core/domain"
)

// ErrConnectorClosed is returned by operations on a closed connector.
var ErrConnectorClosed = errors.New("connector closed")

// Connector enumerates and watches the files of one document source.
type Connector interface {
	// Type returns the connector type identifier (e.g., "filesystem").
	Type() string

	// Root returns the location the connector reads from.
	Root() string

	// Validate checks the source is reachable.
	Validate(ctx context.Context) error

	// Scan streams every eligible file path. The path channel closes when
	// the scan ends; at most one fatal error is sent on the error channel,
	// which is closed afterwards.
	Scan(ctx context.Context) (<-chan string, <-chan error)

	// Watch streams changes until ctx is cancelled or the connector is closed.
	Watch(ctx context.Context) (<-chan domain.FileChange, error)

	// Close stops any active watch and releases resources. Idempotent.
	Close() error
}
