package core

import (
	"encoding/json"
	"math"
)

// Ledger tracks a set of rows by data index: selected rows or expanded rows.
// It keeps an insertion-ordered list next to an O(1) lookup table and
// remembers the last row a non-range action touched as the shift-click anchor.
type Ledger struct {
	mode   SelectMode
	rows   []int
	lookup map[int]bool

	anchor    int
	hasAnchor bool

	allowed func(dataIndex int, current []int) bool
}

// NewLedger creates an empty ledger. allowed may be nil.
func NewLedger(mode SelectMode, allowed func(dataIndex int, current []int) bool) *Ledger {
	return &Ledger{
		mode:    mode,
		lookup:  make(map[int]bool),
		allowed: allowed,
	}
}

func (l *Ledger) Mode() SelectMode { return l.mode }

func (l *Ledger) Len() int { return len(l.rows) }

// Rows returns the members in insertion order.
func (l *Ledger) Rows() []int {
	return append([]int{}, l.rows...)
}

// Lookup returns a copy of the membership table.
func (l *Ledger) Lookup() map[int]bool {
	out := make(map[int]bool, len(l.lookup))
	for k, v := range l.lookup {
		out[k] = v
	}
	return out
}

func (l *Ledger) IsSelected(dataIndex int) bool {
	return l.lookup[dataIndex]
}

// Anchor returns the last row a non-range action touched.
func (l *Ledger) Anchor() (int, bool) {
	return l.anchor, l.hasAnchor
}

// IsSelectable reports whether dataIndex may change membership.
func (l *Ledger) IsSelectable(dataIndex int) bool {
	if l.mode == SelectNone {
		return false
	}
	if l.allowed != nil {
		return l.allowed(dataIndex, l.Rows())
	}
	return true
}

// Toggle flips membership of one row. In single mode selecting a row clears
// the others first.
func (l *Ledger) Toggle(dataIndex int) []int {
	if !l.IsSelectable(dataIndex) {
		return l.Rows()
	}
	if l.lookup[dataIndex] {
		l.remove(dataIndex)
	} else {
		if l.mode == SelectSingle {
			l.clear()
		}
		l.add(dataIndex)
	}
	l.anchor, l.hasAnchor = dataIndex, true
	return l.Rows()
}

// SelectRange sets every selectable row between from and to, inclusive, in
// display order to the new state of to. Rows missing from order fall back to
// a plain toggle of to. The anchor is left untouched.
func (l *Ledger) SelectRange(from, to int, order []int) []int {
	if l.mode != SelectMultiple {
		return l.Toggle(to)
	}
	fi, ti := indexOfInt(order, from), indexOfInt(order, to)
	if fi < 0 || ti < 0 {
		return l.Toggle(to)
	}
	if fi > ti {
		fi, ti = ti, fi
	}
	want := !l.lookup[to]
	for _, idx := range order[fi : ti+1] {
		if l.lookup[idx] == want || !l.IsSelectable(idx) {
			continue
		}
		if want {
			l.add(idx)
		} else {
			l.remove(idx)
		}
	}
	return l.Rows()
}

// Extend is a shift-click on to: a range from the anchor, or a toggle when
// there is no anchor yet.
func (l *Ledger) Extend(to int, order []int) []int {
	if !l.hasAnchor {
		return l.Toggle(to)
	}
	return l.SelectRange(l.anchor, to, order)
}

// SelectAll adds every selectable candidate. It only applies in multiple mode.
func (l *Ledger) SelectAll(candidates []int) []int {
	if l.mode != SelectMultiple {
		return l.Rows()
	}
	for _, idx := range candidates {
		if !l.lookup[idx] && l.IsSelectable(idx) {
			l.add(idx)
		}
	}
	return l.Rows()
}

// ClearAll empties the ledger and forgets the anchor.
func (l *Ledger) ClearAll() []int {
	l.clear()
	l.hasAnchor = false
	return l.Rows()
}

// Set replaces the members. rowCount bounds valid indices. The anchor moves
// to the last member, or is dropped when the new set is empty. The ledger is
// left unchanged on error.
func (l *Ledger) Set(rows []int, rowCount int) error {
	switch {
	case l.mode == SelectNone && len(rows) > 0:
		return invalidSelection("selection is disabled", rows)
	case l.mode == SelectSingle && len(dedupe(rows)) > 1:
		return invalidSelection("more than one row in single mode", rows)
	}
	for _, idx := range rows {
		if idx < 0 || idx >= rowCount {
			return invalidSelection("row index out of range", idx)
		}
	}
	l.clear()
	for _, idx := range dedupe(rows) {
		l.add(idx)
	}
	l.hasAnchor = len(l.rows) > 0
	if l.hasAnchor {
		l.anchor = l.rows[len(l.rows)-1]
	}
	return nil
}

func (l *Ledger) add(dataIndex int) {
	l.rows = append(l.rows, dataIndex)
	l.lookup[dataIndex] = true
}

func (l *Ledger) remove(dataIndex int) {
	delete(l.lookup, dataIndex)
	if i := indexOfInt(l.rows, dataIndex); i >= 0 {
		l.rows = append(l.rows[:i], l.rows[i+1:]...)
	}
}

func (l *Ledger) clear() {
	l.rows = l.rows[:0]
	clear(l.lookup)
}

// SelectedRow is one entry of the {data, lookup} selection shape.
type SelectedRow struct {
	Index     int `json:"index"`
	DataIndex int `json:"dataIndex"`
}

// SelectionState is the {data, lookup} selection shape.
type SelectionState struct {
	Data   []SelectedRow `json:"data"`
	Lookup map[int]bool  `json:"lookup"`
}

// NormalizeSelection converts the accepted selection shapes into data indices:
// []int, a list of numbers, a SelectionState, or its decoded JSON map form.
func NormalizeSelection(v any) ([]int, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []int:
		for _, idx := range t {
			if idx < 0 {
				return nil, invalidSelection("negative row index", idx)
			}
		}
		return append([]int(nil), t...), nil
	case []any:
		out := make([]int, 0, len(t))
		for _, e := range t {
			idx, err := selectionIndex(e)
			if err != nil {
				return nil, err
			}
			out = append(out, idx)
		}
		return out, nil
	case SelectionState:
		out := make([]int, len(t.Data))
		for i, r := range t.Data {
			if r.DataIndex < 0 {
				return nil, invalidSelection("negative row index", r.DataIndex)
			}
			out[i] = r.DataIndex
		}
		return out, nil
	case *SelectionState:
		if t == nil {
			return nil, nil
		}
		return NormalizeSelection(*t)
	case map[string]any:
		data, ok := t["data"].([]any)
		if !ok {
			return nil, invalidSelection("selection object has no data list", v)
		}
		return NormalizeSelection(data)
	}
	return nil, invalidSelection("unsupported selection shape", v)
}

func selectionIndex(e any) (int, error) {
	if m, ok := e.(map[string]any); ok {
		di, ok := m["dataIndex"]
		if !ok {
			return 0, invalidSelection("selection entry has no dataIndex", e)
		}
		e = di
	}
	switch n := e.(type) {
	case int:
		if n < 0 {
			return 0, invalidSelection("negative row index", n)
		}
		return n, nil
	case int64:
		if n < 0 || n > math.MaxInt32 {
			return 0, invalidSelection("row index out of range", n)
		}
		return int(n), nil
	case float64:
		if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
			return 0, invalidSelection("not a row index", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return 0, invalidSelection("not a row index", n)
		}
		return int(i), nil
	}
	return 0, invalidSelection("not a row index", e)
}

func dedupe(rows []int) []int {
	seen := make(map[int]bool, len(rows))
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func indexOfInt(list []int, v int) int {
	for i, e := range list {
		if e == v {
			return i
		}
	}
	return -1
}
