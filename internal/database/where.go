package database

import (
	"fmt"
	"strings"
)

// WhereBuilder accumulates AND-ed conditions with numbered placeholders.
type WhereBuilder struct {
	conditions []string
	args       []interface{}
	argIndex   int
}

// NewWhereBuilder returns an empty builder whose first placeholder is $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "column = $n". Empty values are skipped.
func (wb *WhereBuilder) Add(column string, value interface{}) {
	if s, ok := value.(string); ok && s == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", quoteIdentifier(column), wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddIn appends a membership test. A nil value matches NULL.
func (wb *WhereBuilder) AddIn(column string, values []interface{}) {
	if len(values) == 0 {
		return
	}
	col := quoteIdentifier(column)

	var parts []string
	var placeholders []string
	for _, v := range values {
		if v == nil {
			parts = append(parts, col+" IS NULL")
			continue
		}
		placeholders = append(placeholders, fmt.Sprintf("$%d", wb.argIndex))
		wb.args = append(wb.args, fmt.Sprint(v))
		wb.argIndex++
	}
	if len(placeholders) > 0 {
		parts = append(parts, fmt.Sprintf("%s::text IN (%s)", col, strings.Join(placeholders, ", ")))
	}

	if len(parts) == 1 {
		wb.conditions = append(wb.conditions, parts[0])
		return
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
}

// AddContains appends a substring match on the column's text form.
func (wb *WhereBuilder) AddContains(column, text string, caseSensitive bool) {
	if text == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s::text %s $%d", quoteIdentifier(column), likeOp(caseSensitive), wb.argIndex))
	wb.args = append(wb.args, "%"+escapeLike(text)+"%")
	wb.argIndex++
}

// AddSearch matches text against any of the columns, sharing one placeholder.
func (wb *WhereBuilder) AddSearch(text string, columns []string, caseSensitive bool) {
	if text == "" || len(columns) == 0 {
		return
	}

	op := likeOp(caseSensitive)
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%s::text %s $%d", quoteIdentifier(c), op, wb.argIndex)
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+escapeLike(text)+"%")
	wb.argIndex++
}

// Build returns " WHERE ..." (or "") and the arguments.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex is the number of the next placeholder.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

func likeOp(caseSensitive bool) string {
	if caseSensitive {
		return "LIKE"
	}
	return "ILIKE"
}

// escapeLike makes % and _ in user text match literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
