// Package detector sniffs the media type of files on disk.
package detector

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Canonical media types handled by the extractors.
const (
	TypePDF         = "application/pdf"
	TypeDOC         = "application/msword"
	TypeDOCX        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeXLS         = "application/vnd.ms-excel"
	TypeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	TypePPT         = "application/vnd.ms-powerpoint"
	TypePPTX        = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	TypeText        = "text/plain"
	TypeHTML        = "text/html"
	TypeOctetStream = "application/octet-stream"
	TypeZip         = "application/zip"
	TypeOLE         = "application/x-ole-storage"
)

// byExtension is consulted only when sniffing gives up.
var byExtension = map[string]string{
	"pdf":  TypePDF,
	"doc":  TypeDOC,
	"docx": TypeDOCX,
	"xls":  TypeXLS,
	"xlsx": TypeXLSX,
	"ppt":  TypePPT,
	"pptx": TypePPTX,
	"txt":  TypeText,
	"html": TypeHTML,
	"htm":  TypeHTML,
}

// Detector implements driven.TypeDetector.
type Detector struct{}

var _ driven.TypeDetector = Detector{}

// New returns a Detector.
func New() Detector {
	return Detector{}
}

// Detect implements driven.TypeDetector.
func (Detector) Detect(path string) string {
	return Detect(path)
}

// Detect returns the canonical media type of the file at path.
// Parameters such as charset are stripped. When magic-byte sniffing
// cannot tell, the file extension decides; an unknown extension leaves
// application/octet-stream.
func Detect(path string) string {
	mt := TypeOctetStream
	if m, err := mimetype.DetectFile(path); err == nil {
		mt = Canonical(m.String())
	}
	if mt != TypeOctetStream {
		return mt
	}
	if byExt, ok := byExtension[Extension(path)]; ok {
		return byExt
	}
	return mt
}

// Canonical lowercases a media type and drops its parameters.
func Canonical(mediaType string) string {
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// Extension returns the lowercase extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
