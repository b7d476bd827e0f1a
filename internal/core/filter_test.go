package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterState_Update(t *testing.T) {
	tests := []struct {
		name   string
		start  FilterState
		kind   FilterKind
		values []any
		want   FilterState
	}{
		{
			name:   "checkbox adds",
			start:  FilterState{},
			kind:   FilterCheckbox,
			values: []any{"NY"},
			want:   FilterState{"State": {"NY"}},
		},
		{
			name:   "checkbox toggles off",
			start:  FilterState{"State": {"NY", "TX"}},
			kind:   FilterCheckbox,
			values: []any{"NY"},
			want:   FilterState{"State": {"TX"}},
		},
		{
			name:   "checkbox last value removes entry",
			start:  FilterState{"State": {"NY"}},
			kind:   FilterCheckbox,
			values: []any{"NY"},
			want:   FilterState{},
		},
		{
			name:   "dropdown holds one value",
			start:  FilterState{"State": {"NY"}},
			kind:   FilterDropdown,
			values: []any{"TX"},
			want:   FilterState{"State": {"TX"}},
		},
		{
			name:   "dropdown empty clears",
			start:  FilterState{"State": {"NY"}},
			kind:   FilterDropdown,
			values: []any{""},
			want:   FilterState{},
		},
		{
			name:   "text field blank clears",
			start:  FilterState{"State": {"N"}},
			kind:   FilterTextField,
			values: []any{"   "},
			want:   FilterState{},
		},
		{
			name:   "multiselect replaces",
			start:  FilterState{"State": {"NY"}},
			kind:   FilterMultiselect,
			values: []any{"TX", "FL"},
			want:   FilterState{"State": {"TX", "FL"}},
		},
		{
			name:   "custom with nothing clears",
			start:  FilterState{"State": {"NY"}},
			kind:   FilterCustom,
			values: nil,
			want:   FilterState{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.start.Clone()
			f.Update("State", tt.kind, tt.values...)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestFilterState_CloneIsDeep(t *testing.T) {
	f := FilterState{"a": {"x"}, "b": {}}
	c := f.Clone()
	c["a"][0] = "changed"

	assert.Equal(t, "x", f["a"][0])
	assert.NotContains(t, c, "b")
	assert.True(t, f.Active())
	assert.False(t, FilterState{"b": {}}.Active())
}

func TestMatchesFilters(t *testing.T) {
	cols, err := NormalizeColumns(Columns("Name", "Tags", "Age"), Options{})
	require.NoError(t, err)
	row := ResolveRow([]any{"Joe James", []any{"a", "b"}, 30}, 0, cols)

	tests := []struct {
		name    string
		kind    FilterKind
		filters FilterState
		want    bool
	}{
		{name: "no filters", filters: nil, want: true},
		{name: "membership hit", kind: FilterCheckbox, filters: FilterState{"Name": {"Joe James"}}, want: true},
		{name: "membership miss", kind: FilterCheckbox, filters: FilterState{"Name": {"Bob"}}, want: false},
		{name: "array any element", kind: FilterDropdown, filters: FilterState{"Tags": {"b"}}, want: true},
		{name: "array no element", kind: FilterDropdown, filters: FilterState{"Tags": {"z"}}, want: false},
		{name: "numeric value equals text", kind: FilterCheckbox, filters: FilterState{"Age": {"30"}}, want: true},
		{name: "text substring case-insensitive", kind: FilterTextField, filters: FilterState{"Name": {"JAMES"}}, want: true},
		{name: "text miss", kind: FilterTextField, filters: FilterState{"Name": {"walsh"}}, want: false},
		{name: "every column must match", kind: FilterCheckbox, filters: FilterState{"Name": {"Joe James"}, "Age": {31}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := make([]Column, len(cols))
			copy(cs, cols)
			for i := range cs {
				if tt.kind != "" {
					cs[i].FilterType = tt.kind
				}
			}
			assert.Equal(t, tt.want, MatchesFilters(row, tt.filters, cs, false))
		})
	}
}

func TestMatchesFilters_CaseSensitiveText(t *testing.T) {
	cols, err := NormalizeColumns(Columns("Name"), Options{FilterType: FilterTextField})
	require.NoError(t, err)
	row := ResolveRow([]any{"Joe James"}, 0, cols)

	assert.True(t, MatchesFilters(row, FilterState{"Name": {"james"}}, cols, false))
	assert.False(t, MatchesFilters(row, FilterState{"Name": {"james"}}, cols, true))
}

func TestMatchesFilters_CustomLogic(t *testing.T) {
	// Keep rows whose age is at least the filter value.
	atLeast := func(v any, filters []any, _ RowData) bool {
		age, _ := toFloat(v)
		floor, _ := toFloat(filters[0])
		return age >= floor
	}
	defs := Columns("Name", "Age")
	defs[1].Options.FilterType = FilterCustom
	defs[1].Options.FilterOptions = FilterOptions{Logic: atLeast}
	cols, err := NormalizeColumns(defs, Options{})
	require.NoError(t, err)

	rows := []RowData{[]any{"a", 20}, []any{"b", 40}, []any{"c", 35}}
	res := Compute(rows, cols, nil, Query{Filters: FilterState{"Age": {35}}})
	assert.Equal(t, []int{1, 2}, res.Matched)
}

func TestFilterIsIdempotent(t *testing.T) {
	cols, err := NormalizeColumns(peopleColumns(), Options{FilterType: FilterTextField})
	require.NoError(t, err)
	q := Query{Filters: FilterState{"City": {"a"}}}

	first := Compute(peopleData(), cols, nil, q)
	kept := make([]RowData, 0, len(first.Matched))
	for _, idx := range first.Matched {
		kept = append(kept, peopleData()[idx])
	}
	second := Compute(kept, cols, nil, q)

	assert.Equal(t, first.Count, second.Count)
}

func TestFilterData_NamesOverride(t *testing.T) {
	defs := peopleColumns()
	defs[3].Options.FilterOptions = FilterOptions{Names: []any{"NY", "CA"}}
	cols, err := NormalizeColumns(defs, Options{})
	require.NoError(t, err)

	fd := FilterData(peopleData(), cols, nil)
	assert.Equal(t, []any{"NY", "CA"}, fd["State"])
	assert.Equal(t, []any{"Test Corp"}, fd["Company"])
}

func TestFilterData_CustomWithoutDisplayOmitted(t *testing.T) {
	defs := peopleColumns()
	defs[2].Options.FilterType = FilterCustom
	defs[3].Options.FilterType = FilterCustom
	defs[3].Options.FilterOptions = FilterOptions{
		Display: func(Column, []any) any { return "picker" },
	}
	cols, err := NormalizeColumns(defs, Options{})
	require.NoError(t, err)

	fd := FilterData(peopleData(), cols, nil)
	assert.NotContains(t, fd, "City")
	assert.Contains(t, fd, "State")
	assert.False(t, cols[2].HasFilterUI())
}

func TestMatchesSearch(t *testing.T) {
	defs := peopleColumns()
	defs[1].Options.Searchable = Bool(false)
	defs[2].Options.Display = Bool(false)
	cols, err := NormalizeColumns(defs, Options{})
	require.NoError(t, err)
	row := ResolveRow(peopleData()[0], 0, cols)

	tests := []struct {
		name          string
		text          string
		caseSensitive bool
		want          bool
	}{
		{name: "blank matches", text: "  ", want: true},
		{name: "visible searchable column", text: "joe", want: true},
		{name: "case sensitive miss", text: "joe", caseSensitive: true, want: false},
		{name: "unsearchable column", text: "Corp", want: false},
		{name: "hidden column", text: "Yonkers", want: false},
		{name: "other column", text: "ny", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSearch(row, tt.text, cols, tt.caseSensitive, nil))
		})
	}
}

func TestMatchesSearch_CustomSearch(t *testing.T) {
	cols, err := NormalizeColumns(peopleColumns(), Options{})
	require.NoError(t, err)
	prefix := func(text string, row RowData, _ []Column) bool {
		return strings.HasPrefix(row.([]any)[0].(string), text)
	}

	res := Compute(peopleData(), cols, nil, Query{SearchText: "J", CustomSearch: prefix})
	assert.Equal(t, []int{0, 1, 3}, res.Matched)

	// Blank text never reaches the custom search.
	res = Compute(peopleData(), cols, nil, Query{SearchText: "", CustomSearch: prefix})
	assert.Equal(t, 4, res.Count)
}
