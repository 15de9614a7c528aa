package dataprocessing

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	apierrors "energydash/internal/errors"
)

// XLSXSource reads one sheet of a workbook. When no sheet is named, the
// first sheet whose leading rows contain a usable header is taken, the way
// GRDF exports are read.
type XLSXSource struct {
	name    string
	dataset string
	path    string
	sheet   string
}

// NewXLSXSource creates a workbook source.
func NewXLSXSource(name, dataset, path, sheet string) *XLSXSource {
	return &XLSXSource{name: name, dataset: dataset, path: path, sheet: sheet}
}

func (s *XLSXSource) Name() string    { return s.name }
func (s *XLSXSource) Dataset() string { return s.dataset }

// Rows returns raw cell values so dates stored as serial numbers survive
// independently of the cell number format.
func (s *XLSXSource) Rows(ctx context.Context) ([][]string, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.sheet != "" {
		rows, err := f.GetRows(s.sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", s.sheet, err)
		}
		if len(rows) == 0 {
			return nil, ErrEmptySource
		}
		return rows, nil
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil || len(rows) == 0 {
			continue
		}
		if _, _, err := detectHeader(rows); err == nil {
			return rows, nil
		}
	}
	return nil, apierrors.NewParsingError("no header in any sheet", ErrNoHeader).WithContext("path", s.path)
}
