// Package ole reads streams out of compound binary files, the container
// used by Word, Excel and PowerPoint 97-2003, and decodes their text.
package ole

import (
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/rag4u/ingest/internal/core/domain"
)

// ReadStream returns the contents of the named stream of a compound file.
func ReadStream(r io.ReaderAt, name string) ([]byte, error) {
	cfb, err := mscfb.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: not a compound file: %v", domain.ErrCorruptFile, err)
	}
	for entry, err := cfb.Next(); err == nil; entry, err = cfb.Next() {
		if entry.Name != name {
			continue
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: read %s stream: %v", domain.ErrCorruptFile, name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: missing %s stream", domain.ErrCorruptFile, name)
}

// DecodeUTF16 decodes little-endian UTF-16. Invalid code units become U+FFFD.
func DecodeUTF16(b []byte) string {
	return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), b)
}

// DecodeANSI decodes Windows-1252 bytes.
func DecodeANSI(b []byte) string {
	return decodeWith(charmap.Windows1252, b)
}

// Decode picks UTF-16LE when the bytes look 16-bit, else Windows-1252.
func Decode(b []byte) string {
	if LooksUTF16(b) {
		return DecodeUTF16(b)
	}
	return DecodeANSI(b)
}

func decodeWith(enc encoding.Encoding, b []byte) string {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// LooksUTF16 reports whether most odd bytes are zero, the signature of
// little-endian UTF-16 text in the Latin range.
func LooksUTF16(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	pairs, zeros := 0, 0
	for i := 0; i+1 < len(b) && pairs < 4096; i += 2 {
		pairs++
		if b[i+1] == 0 {
			zeros++
		}
	}
	return zeros*3 > pairs*2
}
