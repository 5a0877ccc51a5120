package extractors

import (
	"github.com/rag4u/ingest/internal/detector"
	"github.com/rag4u/ingest/internal/extractors/doc"
	"github.com/rag4u/ingest/internal/extractors/docx"
	"github.com/rag4u/ingest/internal/extractors/html"
	"github.com/rag4u/ingest/internal/extractors/pdf"
	"github.com/rag4u/ingest/internal/extractors/plaintext"
	"github.com/rag4u/ingest/internal/extractors/ppt"
	"github.com/rag4u/ingest/internal/extractors/pptx"
	"github.com/rag4u/ingest/internal/extractors/xls"
	"github.com/rag4u/ingest/internal/extractors/xlsx"
)

// RegisterDefaults registers all built-in extractors with the registry.
// OOXML formats accept application/zip and legacy Office formats accept
// application/x-ole-storage when the extension agrees.
func RegisterDefaults(r *Registry) {
	r.Register(Is(detector.TypePDF), pdf.New())
	r.Register(IsOrContainer(detector.TypeDOCX, "docx", detector.TypeZip, "text/xml", "application/xml"), docx.New())
	r.Register(IsOrContainer(detector.TypeXLSX, "xlsx", detector.TypeZip), xlsx.New())
	r.Register(IsOrContainer(detector.TypePPTX, "pptx", detector.TypeZip), pptx.New())
	r.Register(IsOrContainer(detector.TypeDOC, "doc", detector.TypeOLE), doc.New())
	r.Register(IsOrContainer(detector.TypeXLS, "xls", detector.TypeOLE), xls.New())
	r.Register(IsOrContainer(detector.TypePPT, "ppt", detector.TypeOLE), ppt.New())
	r.Register(Is(detector.TypeHTML), html.New())
	r.Register(Is(detector.TypeText), plaintext.New())
}

// Default returns a registry with every built-in extractor registered.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
