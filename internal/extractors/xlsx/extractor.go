// Package xlsx extracts the first sheet of Excel 2007+ workbooks as a
// right-aligned text table.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
	"github.com/rag4u/ingest/internal/extractors/xls"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles XLSX workbooks.
type Extractor struct {
	fallback driven.Extractor
}

// New creates a new XLSX extractor that falls back to the XLS reader.
func New() *Extractor {
	return &Extractor{fallback: xls.New()}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "xlsx"
}

// Extract renders the first sheet with its header row first. Workbooks
// excelize cannot open are retried as legacy XLS.
func (e *Extractor) Extract(ctx context.Context, path string) ([]domain.Segment, error) {
	text, err := firstSheet(path)
	if err == nil {
		return []domain.Segment{{Text: text}}, nil
	}
	if e.fallback == nil {
		return nil, err
	}

	segs, fbErr := e.fallback.Extract(ctx, path)
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}
	return segs, nil
}

func firstSheet(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", domain.ErrEmptyExtraction)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("%w: read sheet %q: %v", domain.ErrCorruptFile, sheets[0], err)
	}

	text := RenderTable(rows)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: sheet %q is empty", domain.ErrEmptyExtraction, sheets[0])
	}
	return text, nil
}

// RenderTable right-aligns every column to its widest cell plus one
// leading space and joins cells with a space, one line per row.
// Rows {{"A","B"},{"1","3"}} render as " A  B\n 1  3".
func RenderTable(rows [][]string) string {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return ""
	}

	widths := make([]int, cols)
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, cols)
		for i := range cells {
			var v string
			if i < len(row) {
				v = row[i]
			}
			cells[i] = strings.Repeat(" ", widths[i]+1-utf8.RuneCountInString(v)) + v
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}
