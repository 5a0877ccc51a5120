package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rag4u/ingest/internal/core/domain"
)

// buildPDF assembles a minimal single-page PDF with a correct xref table.
func buildPDF(content string) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestNew(t *testing.T) {
	e := New()
	require.NotNil(t, e)
	assert.Equal(t, "pdf", e.Name())
}

func TestExtract_Success(t *testing.T) {
	path := writeTemp(t, "hello.pdf", buildPDF("BT /F1 12 Tf 72 712 Td (Hello PDF world) Tj ET"))

	segs, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, 0, segs[0].Page)
	assert.Contains(t, segs[0].Text, "Hello")
}

func TestExtract_Corrupt(t *testing.T) {
	path := writeTemp(t, "broken.pdf", []byte("%PDF-1.4\nthis is not really a pdf at all"))

	segs, err := New().Extract(context.Background(), path)
	require.Error(t, err)
	assert.Nil(t, segs)
	assert.True(t, errors.Is(err, domain.ErrCorruptFile), "got %v", err)
}

func TestExtract_Missing(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
}

func TestStreamText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{"Tj", "BT\n(Hello) Tj\nET", "Hello"},
		{"TJ array", "BT\n[(Hel) -20 (lo)] TJ\nET", "Hello"},
		{"quote operator", "BT\n(a) Tj\n(b) '\nET", "a\nb"},
		{"positioning adds space", "BT\n(a) Tj\n0 -14 Td\n(b) Tj\nET", "a b"},
		{"escaped paren", `BT` + "\n" + `(f\(x\)) Tj` + "\nET", "f(x)"},
		{"no text", "q 1 0 0 1 0 0 cm Q", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, streamText([]byte(tt.stream)))
		})
	}
}

func TestDecodeLiteral(t *testing.T) {
	assert.Equal(t, "a\nb", decodeLiteral([]byte(`a\nb`)))
	assert.Equal(t, " ", decodeLiteral([]byte(`\040`)))
	assert.Equal(t, `\`, decodeLiteral([]byte(`\\`)))
	assert.Equal(t, "trailing\\", decodeLiteral([]byte(`trailing\`)))
}
