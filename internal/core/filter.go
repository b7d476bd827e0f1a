package core

import (
	"sort"
	"strings"
)

// FilterState holds the accepted values per column name. A missing or empty
// entry places no constraint on that column.
type FilterState map[string][]any

// Clone returns a deep copy of the entry lists.
func (f FilterState) Clone() FilterState {
	out := make(FilterState, len(f))
	for k, v := range f {
		if len(v) == 0 {
			continue
		}
		out[k] = append([]any(nil), v...)
	}
	return out
}

// Active reports whether any column carries a constraint.
func (f FilterState) Active() bool {
	for _, v := range f {
		if len(v) > 0 {
			return true
		}
	}
	return false
}

// Update applies a change the way a filter control of the given kind produces it.
// Checkbox toggles each value, dropdown and text field hold a single value, and
// multiselect and custom replace the list.
func (f FilterState) Update(column string, kind FilterKind, values ...any) {
	switch kind {
	case FilterCheckbox:
		cur := f[column]
		for _, v := range values {
			if i := indexOfValue(cur, v); i >= 0 {
				cur = append(cur[:i:i], cur[i+1:]...)
			} else {
				cur = append(cur, v)
			}
		}
		f.set(column, cur)
	case FilterDropdown:
		if len(values) == 0 || isNull(values[0]) || values[0] == "" {
			delete(f, column)
			return
		}
		f.set(column, []any{values[0]})
	case FilterTextField:
		if len(values) == 0 || strings.TrimSpace(formatValue(values[0])) == "" {
			delete(f, column)
			return
		}
		f.set(column, []any{values[0]})
	default:
		f.set(column, append([]any(nil), values...))
	}
}

// Remove drops one value from a column's entry, as closing a filter chip does.
func (f FilterState) Remove(column string, value any) bool {
	cur := f[column]
	i := indexOfValue(cur, value)
	if i < 0 {
		return false
	}
	f.set(column, append(cur[:i:i], cur[i+1:]...))
	return true
}

func (f FilterState) set(column string, values []any) {
	if len(values) == 0 {
		delete(f, column)
		return
	}
	f[column] = values
}

func indexOfValue(list []any, v any) int {
	for i, e := range list {
		if valuesEqual(e, v) {
			return i
		}
	}
	return -1
}

// filterMatcher decides one column's constraint for a resolved scalar or
// multi-valued cell.
type filterMatcher func(value any, filters []any, caseSensitive bool) bool

var filterMatchers = map[FilterKind]filterMatcher{
	FilterCheckbox:    matchMembership,
	FilterDropdown:    matchMembership,
	FilterMultiselect: matchMembership,
	FilterTextField:   matchText,
	FilterCustom:      matchMembership,
}

func matchMembership(value any, filters []any, _ bool) bool {
	if elems, ok := asSlice(value); ok {
		for _, e := range elems {
			if containsValue(filters, e) {
				return true
			}
		}
		return false
	}
	return containsValue(filters, value)
}

func matchText(value any, filters []any, caseSensitive bool) bool {
	needle := formatValue(filters[0])
	if strings.TrimSpace(needle) == "" {
		return true
	}
	if elems, ok := asSlice(value); ok {
		for _, e := range elems {
			if containsText(formatValue(e), needle, caseSensitive) {
				return true
			}
		}
		return false
	}
	return containsText(formatValue(value), needle, caseSensitive)
}

// MatchesFilters reports whether r passes every non-empty column entry.
func MatchesFilters(r ResolvedRow, filters FilterState, columns []Column, caseSensitive bool) bool {
	if len(filters) == 0 {
		return true
	}
	for i, col := range columns {
		active := filters[col.Name]
		if len(active) == 0 {
			continue
		}
		value := r.compareValue(i, col)
		if col.FilterOptions.Logic != nil {
			if !col.FilterOptions.Logic(value, active, r.Row) {
				return false
			}
			continue
		}
		match, ok := filterMatchers[col.FilterType]
		if !ok {
			match = matchMembership
		}
		if !match(value, active, caseSensitive) {
			return false
		}
	}
	return true
}

// FilterData lists the distinct values each filterable column offers to its
// filter control, sorted ascending. Multi-valued cells contribute each element.
func FilterData(rows []RowData, columns []Column, c *Comparator) map[string][]any {
	if c == nil {
		c = NewComparator("en")
	}
	resolved := make([]ResolvedRow, len(rows))
	for idx, row := range rows {
		resolved[idx] = ResolveRow(row, idx, columns)
	}

	out := make(map[string][]any, len(columns))
	for i, col := range columns {
		if !col.HasFilterUI() {
			continue
		}
		if len(col.FilterOptions.Names) > 0 {
			out[col.Name] = append([]any(nil), col.FilterOptions.Names...)
			continue
		}
		var values []any
		seen := make(map[string]bool)
		add := func(v any) {
			if isNull(v) {
				return
			}
			key := formatValue(v)
			if seen[key] {
				return
			}
			seen[key] = true
			values = append(values, v)
		}
		for _, r := range resolved {
			v := r.compareValue(i, col)
			if elems, ok := asSlice(v); ok {
				for _, e := range elems {
					add(e)
				}
				continue
			}
			add(v)
		}
		sort.SliceStable(values, func(a, b int) bool {
			return c.Compare(values[a], values[b], SortAsc) < 0
		})
		out[col.Name] = values
	}
	return out
}
