// Package export writes a table's download projection in formats other than
// CSV. The projection (which columns, which rows, in which order) always comes
// from the table, so every format contains exactly what the CSV would.
package export

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/datatable/internal/core"
)

// ContentTypeXLSX is the media type of a workbook download.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetName = 31

// XLSX writes the downloadable columns and rows to w as a one-sheet workbook.
// Text cells that a spreadsheet would run as formulas get the same apostrophe
// prefix as in CSV downloads.
func XLSX(w io.Writer, sheet string, columns []core.Column, rows []core.DownloadRow) error {
	f := excelize.NewFile()
	defer f.Close()

	name := SheetName(sheet)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	var cols []core.Column
	for _, c := range columns {
		if c.Downloadable {
			cols = append(cols, c)
		}
	}

	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = core.EscapeDangerousCSV(c.Title())
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: bold}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		values := make([]interface{}, len(cols))
		for j, c := range cols {
			if c.Index >= 0 && c.Index < len(row.Data) {
				values[j] = cellValue(row.Data[c.Index])
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellValue maps a raw cell onto a type the stream writer stores natively.
func cellValue(v any) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return core.EscapeDangerousCSV(x)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return x
	case time.Time:
		return x
	}
	return core.EscapeDangerousCSV(core.FormatValue(v))
}

// SheetName makes s usable as a worksheet name.
func SheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.Trim(s, "'")
	if s == "" {
		return "Sheet1"
	}
	if r := []rune(s); len(r) > maxSheetName {
		s = string(r[:maxSheetName])
	}
	return s
}

// Filename swaps the extension of a download filename for .xlsx.
func Filename(name string) string {
	if name == "" {
		return "tableDownload.xlsx"
	}
	return strings.TrimSuffix(name, path.Ext(name)) + ".xlsx"
}
