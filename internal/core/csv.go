package core

import (
	"strings"
)

// csvLineSeparator joins records. There is no trailing separator.
const csvLineSeparator = "\r\n"

// DownloadRow is one row handed to the CSV Builder. Data is aligned with the
// full column set by Column.Index.
type DownloadRow struct {
	DataIndex int   `json:"index"`
	Data      []any `json:"data"`
}

// DownloadHook may replace or veto a download. Returning ok=false suppresses
// the download. Returning ok=true with an empty string keeps the default
// serialization.
type DownloadHook func(b CSVBuilder, columns []Column, rows []DownloadRow) (csv string, ok bool)

// CSVBuilder serializes a column/row projection. Every field is quoted,
// embedded quotes are doubled, and string fields that start with a formula
// character get a leading apostrophe.
type CSVBuilder struct {
	Separator string
}

// Head is the header record of the downloadable columns.
func (b CSVBuilder) Head(columns []Column) string {
	fields := make([]string, 0, len(columns))
	for _, col := range columns {
		if !col.Downloadable {
			continue
		}
		fields = append(fields, quoteCSV(EscapeDangerousCSV(col.Title())))
	}
	return strings.Join(fields, b.separator())
}

// Body is one record per row, joined with CRLF.
func (b CSVBuilder) Body(columns []Column, rows []DownloadRow) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = b.record(columns, row.Data)
	}
	return strings.Join(lines, csvLineSeparator)
}

// Build is the header plus body. Zero downloadable columns yield "".
func (b CSVBuilder) Build(columns []Column, rows []DownloadRow) string {
	if !hasDownloadable(columns) {
		return ""
	}
	head := b.Head(columns)
	if len(rows) == 0 {
		return head
	}
	return head + csvLineSeparator + b.Body(columns, rows)
}

func (b CSVBuilder) record(columns []Column, data []any) string {
	fields := make([]string, 0, len(columns))
	for _, col := range columns {
		if !col.Downloadable {
			continue
		}
		var v any
		if col.Index >= 0 && col.Index < len(data) {
			v = data[col.Index]
		}
		fields = append(fields, csvField(v))
	}
	return strings.Join(fields, b.separator())
}

func (b CSVBuilder) separator() string {
	if b.Separator == "" {
		return ","
	}
	return b.Separator
}

// BuildCSV serializes rows, each aligned with columns, using the separator
// from opts.
func BuildCSV(columns []Column, rows [][]any, opts DownloadOptions) string {
	dl := make([]DownloadRow, len(rows))
	for i, r := range rows {
		dl[i] = DownloadRow{DataIndex: i, Data: r}
	}
	return CSVBuilder{Separator: opts.Separator}.Build(columns, dl)
}

// EscapeDangerousCSV prefixes s with an apostrophe when it starts with a
// character spreadsheets treat as a formula.
func EscapeDangerousCSV(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

func csvField(v any) string {
	if s, ok := v.(string); ok {
		return quoteCSV(EscapeDangerousCSV(s))
	}
	return quoteCSV(formatValue(v))
}

func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func hasDownloadable(columns []Column) bool {
	for _, c := range columns {
		if c.Downloadable {
			return true
		}
	}
	return false
}
