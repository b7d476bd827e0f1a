package core

import "strings"

// MatchesSearch reports whether any searchable, visible column of r contains
// text. Blank text matches every row. custom, when set, replaces the default
// matching for non-blank text.
func MatchesSearch(r ResolvedRow, text string, columns []Column, caseSensitive bool, custom SearchFunc) bool {
	if strings.TrimSpace(text) == "" {
		return true
	}
	if custom != nil {
		return custom(text, r.Row, columns)
	}
	for i, col := range columns {
		if !col.Searchable || !col.Visible {
			continue
		}
		if containsText(formatValue(r.searchValue(i)), text, caseSensitive) {
			return true
		}
	}
	return false
}
