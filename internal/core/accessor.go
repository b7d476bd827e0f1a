package core

// Resolve returns the raw value of col in row. Array rows are addressed by the
// column's input position, keyed rows by name, nested path or JSONPath.
// A missing key or index yields nil.
func Resolve(row RowData, col Column) any {
	if col.Empty {
		return nil
	}
	switch r := row.(type) {
	case []any:
		if col.Index < 0 || col.Index >= len(r) {
			return nil
		}
		return r[col.Index]
	case []string:
		if col.Index < 0 || col.Index >= len(r) {
			return nil
		}
		return r[col.Index]
	case map[string]any:
		if col.JSONPath != nil {
			results := col.JSONPath.Get(r)
			if len(results) == 0 {
				return nil
			}
			return results[0]
		}
		if len(col.Path) > 0 {
			return descend(r, col.Path)
		}
		return r[col.Name]
	case map[string]string:
		v, ok := r[col.Name]
		if !ok {
			return nil
		}
		return v
	}
	return nil
}

func descend(m map[string]any, path []string) any {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = obj[key]
		if !ok {
			return nil
		}
	}
	return cur
}

// DisplayValue is the value shown for col: the render hook's output when set,
// else the raw value.
func (c Column) DisplayValue(raw any, dataIndex int, row RowData) any {
	if c.Render == nil {
		return raw
	}
	return c.Render(raw, dataIndex, row)
}

// ResolvedRow caches the raw and display values of one input row.
type ResolvedRow struct {
	DataIndex int
	Row       RowData
	Raw       []any
	Display   []any
}

// ResolveRow resolves every column of row once.
func ResolveRow(row RowData, dataIndex int, columns []Column) ResolvedRow {
	r := ResolvedRow{
		DataIndex: dataIndex,
		Row:       row,
		Raw:       make([]any, len(columns)),
		Display:   make([]any, len(columns)),
	}
	for i, col := range columns {
		raw := Resolve(row, col)
		r.Raw[i] = raw
		r.Display[i] = col.DisplayValue(raw, dataIndex, row)
	}
	return r
}

// compareValue is what filters and sorts see for column i.
func (r ResolvedRow) compareValue(i int, col Column) any {
	if col.RenderForCompare && col.Render != nil {
		return r.Display[i]
	}
	return r.Raw[i]
}

// searchValue prefers the display value unless the render hook produced
// something that is not plain text.
func (r ResolvedRow) searchValue(i int) any {
	if isScalar(r.Display[i]) {
		return r.Display[i]
	}
	return r.Raw[i]
}
