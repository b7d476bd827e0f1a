package schema

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is the byte order mark Excel prepends to UTF-8 CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newCSVReader wraps r in a csv.Reader that skips a leading BOM and tolerates
// ragged rows and stray quotes.
func newCSVReader(r io.Reader, comma rune) *csv.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

// readCSVRows reads a CSV file with a header row into array rows aligned with
// columns. Columns are matched to headers case-insensitively by their header
// name; columns without a header and empty columns stay nil.
func readCSVRows(r io.Reader, comma rune, columns []ColumnSpec) ([]any, error) {
	cr := newCSVReader(r, comma)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := makeHeaderIndex(sanitizeRecord(header))

	positions := make([]int, len(columns))
	for i, col := range columns {
		positions[i] = -1
		if col.Empty {
			continue
		}
		if p, ok := idx.lookup(col.headerName()); ok {
			positions[i] = p
		}
	}

	rows := []any{}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlankRecord(record) {
			continue
		}
		record = sanitizeRecord(record)

		row := make([]any, len(columns))
		for i, p := range positions {
			if p < 0 || p >= len(record) {
				continue
			}
			row[i] = columns[i].Type.Convert(record[p])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sanitizeRecord replaces invalid UTF-8 sequences so collation and JSON
// encoding never see broken strings.
func sanitizeRecord(record []string) []string {
	for i, cell := range record {
		record[i] = strings.ToValidUTF8(cell, "�")
	}
	return record
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
