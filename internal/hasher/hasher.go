// Package hasher fingerprints files for deduplication.
package hasher

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/rag4u/ingest/internal/core/domain"
)

// BlockSize is the read buffer size used while hashing.
const BlockSize = 32 * 1024

// File returns the lowercase hex MD5 digest of the file at path.
// Errors wrap domain.ErrUnreadable.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrUnreadable, path, err)
	}
	defer f.Close()

	return Reader(f)
}

// Reader hashes everything readable from r.
func Reader(r io.Reader) (string, error) {
	h := md5.New() //nolint:gosec
	buf := make([]byte, BlockSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnreadable, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// RecordKey derives the upsert key for the chunk at position.
func RecordKey(digest string, position int) string {
	return domain.RecordKey(digest, position)
}
