package exporter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"energydash/pkg/contracts/domain"
)

// DefaultSheet is the worksheet name of an exported table.
const DefaultSheet = "Export"

// WriteXLSX writes table as a single sheet workbook to out. Values are stored
// as numbers so the sheet stays usable for further calculation.
func WriteXLSX(out io.Writer, table domain.DisplayTable, sheet string) error {
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{row.Period, row.Group, cellValue(row.Value)}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(v string) interface{} {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
