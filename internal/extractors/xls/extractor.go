// Package xls extracts cell text from Excel 97-2003 workbooks.
package xls

import (
	"context"
	"fmt"
	"strings"

	"github.com/extrame/xls"

	"github.com/rag4u/ingest/internal/core/domain"
	"github.com/rag4u/ingest/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles XLS workbooks.
type Extractor struct{}

// New creates a new XLS extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name returns the extractor name.
func (e *Extractor) Name() string {
	return "xls"
}

// Extract renders every row of every sheet as one line of space-joined cells.
func (e *Extractor) Extract(_ context.Context, path string) (segs []domain.Segment, err error) {
	defer func() {
		if p := recover(); p != nil {
			segs, err = nil, fmt.Errorf("%w: xls reader: %v", domain.ErrCorruptFile, p)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: unreadable workbook", domain.ErrCorruptFile)
	}

	var lines []string
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				continue
			}
			var cells []string
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				if v := strings.TrimSpace(row.Col(c)); v != "" {
					cells = append(cells, v)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " "))
			}
		}
	}

	if len(lines) == 0 {
		return nil, domain.ErrEmptyExtraction
	}
	return []domain.Segment{{Text: strings.Join(lines, "\n")}}, nil
}
