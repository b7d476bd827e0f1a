package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/datatable/internal/core"
)

// RowSource serves a server-side dataset from one table. Filters, search,
// sort and paging run in SQL; rows come back as arrays aligned with the
// table's columns.
type RowSource struct {
	db    DBTX
	table string
	// columns maps column names to SQL column names. Columns missing from the
	// map have no backing data and read as NULL.
	columns map[string]string
}

// NewRowSource creates a RowSource over table.
func NewRowSource(db DBTX, table string, columns map[string]string) *RowSource {
	return &RowSource{db: db, table: table, columns: columns}
}

// Fetch returns the requested page and the number of matching rows. The page
// is clamped to the last one that exists, as the engine does for local data.
func (s *RowSource) Fetch(ctx context.Context, q core.Query, columns []core.Column) ([]core.RowData, int, error) {
	wb := NewWhereBuilder()
	s.addFilters(wb, q, columns)
	s.addSearch(wb, q, columns)
	where, args := wb.Build()

	var total int
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteTable(s.table), where)
	if err := s.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count rows: %w", err)
	}

	rowsPerPage := q.RowsPerPage
	if rowsPerPage <= 0 {
		rowsPerPage = core.DefaultRowsPerPage
	}
	page := core.PageValue(total, rowsPerPage, q.Page)

	argIdx := wb.NextArgIndex()
	query := fmt.Sprintf("SELECT %s FROM %s%s%s LIMIT $%d OFFSET $%d",
		s.selectList(columns),
		quoteTable(s.table),
		where,
		s.orderBy(q.Sort, columns),
		argIdx,
		argIdx+1,
	)
	args = append(args, rowsPerPage, page*rowsPerPage)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	result := []core.RowData{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, 0, fmt.Errorf("read row values: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		result = append(result, values)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}
	return result, total, nil
}

// selectList selects every column in order, NULL for unmapped ones.
func (s *RowSource) selectList(columns []core.Column) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		sqlName, ok := s.columns[c.Name]
		if !ok || c.Empty {
			parts[i] = "NULL"
			continue
		}
		parts[i] = quoteIdentifier(sqlName)
	}
	return strings.Join(parts, ", ")
}

func (s *RowSource) addFilters(wb *WhereBuilder, q core.Query, columns []core.Column) {
	for _, c := range columns {
		values := q.Filters[c.Name]
		if len(values) == 0 || !c.Filterable {
			continue
		}
		sqlName, ok := s.columns[c.Name]
		if !ok {
			continue
		}
		switch c.FilterType {
		case core.FilterTextField:
			text, _ := values[0].(string)
			wb.AddContains(sqlName, text, q.CaseSensitive)
		case core.FilterCustom:
			slog.Debug("custom filter not applied to database source", "column", c.Name)
		default:
			wb.AddIn(sqlName, values)
		}
	}
}

func (s *RowSource) addSearch(wb *WhereBuilder, q core.Query, columns []core.Column) {
	if q.SearchText == "" {
		return
	}
	var cols []string
	for _, c := range columns {
		if !c.Searchable || !c.Visible {
			continue
		}
		if sqlName, ok := s.columns[c.Name]; ok {
			cols = append(cols, sqlName)
		}
	}
	wb.AddSearch(q.SearchText, cols, q.CaseSensitive)
}

// orderBy sorts by the active column with NULLs last, falling back to the
// first mapped column so paging is deterministic.
func (s *RowSource) orderBy(spec core.SortSpec, columns []core.Column) string {
	if spec.Active() {
		for _, c := range columns {
			if c.Name != spec.Name || !c.Sortable {
				continue
			}
			if sqlName, ok := s.columns[c.Name]; ok {
				dir := "ASC"
				if spec.Direction == core.SortDesc {
					dir = "DESC"
				}
				return fmt.Sprintf(" ORDER BY %s %s NULLS LAST", quoteIdentifier(sqlName), dir)
			}
		}
	}
	for _, c := range columns {
		if sqlName, ok := s.columns[c.Name]; ok && !c.Empty {
			return fmt.Sprintf(" ORDER BY %s ASC", quoteIdentifier(sqlName))
		}
	}
	return ""
}

// normalizeValue converts pgx's wire types into the plain values the engine
// compares and renders.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}
