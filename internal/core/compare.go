package core

import (
	"cmp"
	"sort"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator orders cell values. Strings use locale collation that ignores
// case and accents and orders embedded numbers numerically. Nulls sort last
// in both directions.
//
// A Comparator is not safe for concurrent use.
type Comparator struct {
	collator *collate.Collator
}

// NewComparator builds a Comparator for a BCP 47 locale. Unknown locales fall
// back to English.
func NewComparator(locale string) *Comparator {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Comparator{
		collator: collate.New(tag, collate.IgnoreCase, collate.IgnoreDiacritics, collate.Numeric),
	}
}

// Compare returns a negative number when a orders before b in direction dir.
func (c *Comparator) Compare(a, b any, dir SortDirection) int {
	an, bn := isNull(a), isNull(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	r := c.compareValues(a, b)
	if dir == SortDesc {
		r = -r
	}
	return r
}

func (c *Comparator) compareValues(a, b any) int {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf)
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}
	return c.collator.CompareString(formatValue(a), formatValue(b))
}

var (
	englishMu  sync.Mutex
	englishCmp = NewComparator("en")
)

// Compare orders a and b with a shared English collator. It is safe for
// concurrent use; tables keep their own Comparator.
func Compare(a, b any, dir SortDirection) int {
	englishMu.Lock()
	defer englishMu.Unlock()
	return englishCmp.Compare(a, b, dir)
}

// sortRows stably orders rows by spec. A column comparator replaces the
// default comparison entirely, nulls included.
func (c *Comparator) sortRows(rows []ResolvedRow, columns []Column, spec SortSpec) {
	if !spec.Active() {
		return
	}
	i := columnIndex(columns, spec.Name)
	if i < 0 {
		return
	}
	col := columns[i]
	less := func(x, y int) bool {
		a, b := rows[x].compareValue(i, col), rows[y].compareValue(i, col)
		if col.Compare != nil {
			return col.Compare(a, b, spec.Direction) < 0
		}
		return c.Compare(a, b, spec.Direction) < 0
	}
	sort.SliceStable(rows, less)
}

// NextSortDirection advances a column's header click cycle. active reports
// whether col is the column currently sorted, with direction current.
//
// The cycle is none → asc → desc, or none → desc → asc for desc-first columns.
// The third click returns to none when SortThirdClickReset is set, otherwise it
// goes back to the first direction. The reset flag wins over desc-first on that
// terminal click.
func NextSortDirection(col Column, current SortDirection, active bool) SortDirection {
	first, second := SortAsc, SortDesc
	if col.SortDescFirst {
		first, second = SortDesc, SortAsc
	}
	if !active || current == SortNone || current == "" {
		return first
	}
	if current == first {
		return second
	}
	if col.SortThirdClickReset {
		return SortNone
	}
	return first
}
