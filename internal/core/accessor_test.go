package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	nested := map[string]any{
		"Name":     "Joe James",
		"Location": map[string]any{"City": "Yonkers", "State": nil},
	}

	defs := []ColumnDef{
		{Name: "Name"},
		{Name: "Location/OK/City"},
		{Name: "Location/OK/State"},
		{Name: "Location/OK/Zip"},
		{Name: "Missing"},
		{Name: "CityPath", Options: ColumnOptions{JSONPath: "$.Location.City"}},
		{Name: "Blank", Options: ColumnOptions{Empty: true}},
	}
	cols, err := NormalizeColumns(defs, Options{NestedDataDelimiter: "/OK/"})
	require.NoError(t, err)
	require.Equal(t, []string{"Location", "City"}, cols[1].Path)

	tests := []struct {
		name string
		row  RowData
		col  int
		want any
	}{
		{name: "keyed by name", row: nested, col: 0, want: "Joe James"},
		{name: "nested path", row: nested, col: 1, want: "Yonkers"},
		{name: "nested null", row: nested, col: 2, want: nil},
		{name: "nested missing", row: nested, col: 3, want: nil},
		{name: "missing key", row: nested, col: 4, want: nil},
		{name: "json path", row: nested, col: 5, want: "Yonkers"},
		{name: "empty column", row: nested, col: 6, want: nil},
		{name: "array by index", row: []any{"a", "b"}, col: 1, want: "b"},
		{name: "array short", row: []any{"a"}, col: 3, want: nil},
		{name: "string array", row: []string{"x", "y"}, col: 0, want: "x"},
		{name: "string map", row: map[string]string{"Name": "Bob"}, col: 0, want: "Bob"},
		{name: "unsupported row", row: 42, col: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.row, cols[tt.col]))
		})
	}
}

func TestNormalizeColumns_InvalidJSONPath(t *testing.T) {
	defs := []ColumnDef{{Name: "x", Options: ColumnOptions{JSONPath: "$[[["}}}
	cols, err := NormalizeColumns(defs, Options{})
	require.NoError(t, err)
	assert.Nil(t, cols[0].JSONPath)
}

func TestNormalizeColumns_Defaults(t *testing.T) {
	defs := []ColumnDef{
		{Name: "a"},
		{Name: "b", Options: ColumnOptions{Display: Bool(false), Sort: Bool(false), FilterType: FilterMultiselect}},
	}
	cols, err := NormalizeColumns(defs, Options{FilterType: FilterDropdown, SortThirdClickReset: true})
	require.NoError(t, err)

	assert.True(t, cols[0].Visible)
	assert.True(t, cols[0].Sortable)
	assert.Equal(t, FilterDropdown, cols[0].FilterType)
	assert.True(t, cols[0].SortThirdClickReset)

	assert.False(t, cols[1].Visible)
	assert.False(t, cols[1].Sortable)
	assert.Equal(t, FilterMultiselect, cols[1].FilterType)
	assert.Equal(t, 1, cols[1].Index)
}

func TestResolveRow_DisplayValue(t *testing.T) {
	defs := Columns("n")
	defs[0].Options.Render = func(v any, dataIndex int, _ RowData) any {
		return map[string]any{"badge": v, "row": dataIndex}
	}
	cols, err := NormalizeColumns(defs, Options{})
	require.NoError(t, err)

	r := ResolveRow([]any{"text"}, 7, cols)
	assert.Equal(t, "text", r.Raw[0])
	assert.Equal(t, map[string]any{"badge": "text", "row": 7}, r.Display[0])
	// Non-scalar render output falls back to the raw value for search.
	assert.Equal(t, "text", r.searchValue(0))
}
