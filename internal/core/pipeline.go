package core

// Query is every input of one pipeline pass besides the rows and columns.
type Query struct {
	Filters       FilterState `json:"filters"`
	SearchText    string      `json:"searchText"`
	Sort          SortSpec    `json:"sort"`
	Page          int         `json:"page"`
	RowsPerPage   int         `json:"rowsPerPage"`
	ServerSide    bool        `json:"serverSide"`
	Count         int         `json:"count"`
	CaseSensitive bool        `json:"caseSensitive"`

	CustomSearch SearchFunc `json:"-"`
	// Order is the baseline row order, usually the previous sort result.
	// Rows that compare equal keep their position in it. Nil means input order.
	Order []int `json:"-"`
}

// Result is the output of one pipeline pass.
type Result struct {
	// Rows is the current page.
	Rows []DisplayRow
	// Matched holds the data indices of every row that passed filter and
	// search, in sorted order, before paging.
	Matched []int
	Count   int
	Page    int
}

// Compute runs filter, search, sort and page-slice over rows in that order.
//
// In server-side mode the first three stages are skipped. If q.Count is
// positive it is taken as the total and rows as the already paged result;
// otherwise rows are paged locally.
func Compute(rows []RowData, columns []Column, c *Comparator, q Query) Result {
	if c == nil {
		c = NewComparator("en")
	}

	order := q.Order
	if len(order) != len(rows) || q.ServerSide {
		order = identityOrder(len(rows))
	}

	resolved := make([]ResolvedRow, 0, len(rows))
	for _, idx := range order {
		r := ResolveRow(rows[idx], idx, columns)
		if !q.ServerSide {
			if !MatchesFilters(r, q.Filters, columns, q.CaseSensitive) {
				continue
			}
			if !MatchesSearch(r, q.SearchText, columns, q.CaseSensitive, q.CustomSearch) {
				continue
			}
		}
		resolved = append(resolved, r)
	}
	if !q.ServerSide {
		c.sortRows(resolved, columns, q.Sort)
	}

	res := Result{
		Matched: make([]int, len(resolved)),
		Count:   len(resolved),
	}
	for i, r := range resolved {
		res.Matched[i] = r.DataIndex
	}

	if q.ServerSide && q.Count > 0 {
		res.Count = q.Count
		res.Page = PageValue(q.Count, q.RowsPerPage, q.Page)
		res.Rows = toDisplayRows(resolved)
		return res
	}

	res.Page = PageValue(res.Count, q.RowsPerPage, q.Page)
	start, end := pageBounds(res.Count, q.RowsPerPage, res.Page)
	res.Rows = toDisplayRows(resolved[start:end])
	return res
}

// PageValue clamps page into [0, ceil(count/rowsPerPage)-1], or 0 when there
// are no rows. A non-positive rowsPerPage puts everything on page 0.
func PageValue(count, rowsPerPage, page int) int {
	if page <= 0 || count <= 0 || rowsPerPage <= 0 {
		return 0
	}
	last := (count+rowsPerPage-1)/rowsPerPage - 1
	if page > last {
		return last
	}
	return page
}

func pageBounds(count, rowsPerPage, page int) (int, int) {
	if rowsPerPage <= 0 {
		return 0, count
	}
	start := page * rowsPerPage
	if start > count {
		start = count
	}
	end := start + rowsPerPage
	if end > count {
		end = count
	}
	return start, end
}

func toDisplayRows(resolved []ResolvedRow) []DisplayRow {
	out := make([]DisplayRow, len(resolved))
	for i, r := range resolved {
		out[i] = DisplayRow{DataIndex: r.DataIndex, Data: r.Display, Raw: r.Raw}
	}
	return out
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// sortedOrder returns every data index of rows ordered by spec, starting from
// the baseline order.
func sortedOrder(rows []RowData, columns []Column, c *Comparator, baseline []int, spec SortSpec) []int {
	if !spec.Active() {
		return identityOrder(len(rows))
	}
	if len(baseline) != len(rows) {
		baseline = identityOrder(len(rows))
	}
	resolved := make([]ResolvedRow, len(baseline))
	for i, idx := range baseline {
		resolved[i] = ResolveRow(rows[idx], idx, columns)
	}
	c.sortRows(resolved, columns, spec)
	order := make([]int, len(resolved))
	for i, r := range resolved {
		order[i] = r.DataIndex
	}
	return order
}
