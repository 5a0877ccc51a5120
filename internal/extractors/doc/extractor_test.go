package doc

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/extractors/cfbtest"
)

const textOffset = 0x400

// wordStream builds a WordDocument stream with a FIB pointing at text.
func wordStream(text []byte) []byte {
	s := make([]byte, textOffset+len(text))
	binary.LittleEndian.PutUint16(s, wIdent)
	binary.LittleEndian.PutUint32(s[offFcMin:], textOffset)
	binary.LittleEndian.PutUint32(s[offFcMac:], uint32(textOffset+len(text)))
	copy(s[textOffset:], text)
	return s
}

func utf16le(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u), byte(u>>8))
	}
	return b
}

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.doc")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestNew(t *testing.T) {
	e := New()
	require.NotNil(t, e)
	assert.Equal(t, "doc", e.Name())
}

func TestExtract_Success(t *testing.T) {
	tests := []struct {
		name string
		text []byte
		want string
	}{
		{"8-bit", []byte("Hello Word\rSecond paragraph\r"), "Hello Word\nSecond paragraph"},
		{"windows-1252", []byte("Caf\xe9 cr\xe8me\r"), "Café crème"},
		{"utf-16", utf16le("Grüße aus Köln\r"), "Grüße aus Köln"},
		{"cell marks", []byte("a\x07b\x07\r"), "a\tb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := cfbtest.Build(cfbtest.Stream{Name: "WordDocument", Data: wordStream(tt.text)})

			segs, err := New().Extract(context.Background(), writeTemp(t, file))
			require.NoError(t, err)
			require.Len(t, segs, 1)
			assert.Equal(t, tt.want, segs[0].Text)
		})
	}
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"not a container", []byte("just some text pretending to be a doc"), domain.ErrCorruptFile},
		{"missing stream", cfbtest.Build(cfbtest.Stream{Name: "1Table", Data: []byte("x")}), domain.ErrCorruptFile},
		{"empty text", cfbtest.Build(cfbtest.Stream{Name: "WordDocument", Data: wordStream([]byte("\r\r"))}), domain.ErrEmptyExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := New().Extract(context.Background(), writeTemp(t, tt.data))
			require.Error(t, err)
			assert.Nil(t, segs)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestTextRange(t *testing.T) {
	t.Run("valid FIB", func(t *testing.T) {
		assert.Equal(t, []byte("abc"), textRange(wordStream([]byte("abc"))))
	})

	t.Run("range past end falls back", func(t *testing.T) {
		s := wordStream([]byte("abc"))
		binary.LittleEndian.PutUint32(s[offFcMac:], 1<<20)
		assert.Equal(t, s[0x200:], textRange(s))
	})

	t.Run("no FIB", func(t *testing.T) {
		assert.Equal(t, []byte("raw"), textRange([]byte("raw")))
	})
}
