package core

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Table is one stateful table instance. It owns the pipeline-derived state
// and both ledgers; every mutation recomputes the display rows before it
// returns and then reports through Hooks.
//
// A Table is not safe for concurrent use.
type Table struct {
	id      string
	opts    Options
	defs    []ColumnDef
	columns []Column
	data    []RowData

	// order is the full data order after the last sort.
	order []int

	filters     FilterState
	searchText  string
	searchOpen  bool
	sort        SortSpec
	page        int
	rowsPerPage int

	selected *Ledger
	expanded *Ledger

	result Result
	cmp    *Comparator
	log    *slog.Logger
}

// New builds a table over data. Options left zero take the framework
// defaults. An invalid initial selection is returned as an
// InvalidSelectionError.
func New(defs []ColumnDef, data []RowData, opts Options) (*Table, error) {
	t := &Table{}
	if err := t.configure(defs, data, opts); err != nil {
		return nil, err
	}
	t.recompute()
	if t.opts.Hooks.OnTableInit != nil {
		t.opts.Hooks.OnTableInit(ActionTableInit, t.State())
	}
	return t, nil
}

func (t *Table) configure(defs []ColumnDef, data []RowData, opts Options) error {
	opts = resolveOptions(opts)
	cols, err := NormalizeColumns(defs, opts)
	if err != nil {
		return err
	}

	t.opts = opts
	t.defs = defs
	t.columns = cols
	t.id = opts.TableID
	if t.id == "" {
		t.id = uuid.NewString()
	}
	t.log = opts.Logger.With("table_id", t.id)
	t.cmp = NewComparator(opts.Locale)
	t.data = append([]RowData(nil), data...)
	t.filters = make(FilterState)
	t.searchText = opts.SearchText
	t.searchOpen = opts.SearchOpen || opts.SearchAlwaysOpen || opts.SearchText != ""
	t.page = opts.Page
	t.rowsPerPage = opts.RowsPerPage

	t.sort = SortSpec{}
	if opts.SortOrder.Active() {
		if i := columnIndex(cols, opts.SortOrder.Name); i >= 0 {
			t.sort = opts.SortOrder
		} else {
			t.log.Debug("ignoring initial sort on unknown column", "column", opts.SortOrder.Name)
		}
	}
	t.order = sortedOrder(t.data, t.columns, t.cmp, nil, t.sort)

	return t.seedLedgers()
}

// seedLedgers creates both ledgers from the configured initial rows. Initial
// selections are ignored when selection is disabled.
func (t *Table) seedLedgers() error {
	t.selected = NewLedger(t.opts.SelectableRows, t.opts.IsRowSelectable)
	if t.opts.SelectableRows != SelectNone {
		if err := t.selected.Set(t.opts.RowsSelected, len(t.data)); err != nil {
			return err
		}
	}

	expandMode := SelectNone
	if t.opts.ExpandableRows {
		expandMode = SelectMultiple
	}
	t.expanded = NewLedger(expandMode, t.opts.IsRowExpandable)
	if t.opts.ExpandableRows {
		if err := t.expanded.Set(t.opts.RowsExpanded, len(t.data)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) recompute() {
	t.result = Compute(t.data, t.columns, t.cmp, t.Query())
	t.page = t.result.Page
}

// Query is the current pipeline input, used by server-side callers to fetch
// the matching page.
func (t *Table) Query() Query {
	return Query{
		Filters:       t.filters,
		SearchText:    t.searchText,
		Sort:          t.sort,
		Page:          t.page,
		RowsPerPage:   t.rowsPerPage,
		ServerSide:    t.opts.ServerSide,
		Count:         t.opts.Count,
		CaseSensitive: t.opts.CaseSensitive,
		CustomSearch:  t.opts.CustomSearch,
		Order:         t.order,
	}
}

func (t *Table) changed(action Action) {
	t.log.Debug("table changed", "action", action, "page", t.page, "count", t.result.Count)
	if t.opts.Hooks.OnTableChange != nil {
		t.opts.Hooks.OnTableChange(action, t.State())
	}
}

func (t *Table) column(name string) (int, Column, error) {
	i := columnIndex(t.columns, name)
	if i < 0 {
		return -1, Column{}, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return i, t.columns[i], nil
}

// SetData replaces the rows wholesale. Data indices are reassigned, the sort
// is reapplied and the ledgers are re-seeded from the options.
func (t *Table) SetData(data []RowData) error {
	t.data = append([]RowData(nil), data...)
	t.order = sortedOrder(t.data, t.columns, t.cmp, nil, t.sort)
	if err := t.seedLedgers(); err != nil {
		return err
	}
	t.recompute()
	t.changed(ActionPropsUpdate)
	return nil
}

// SetOptions replaces columns and options wholesale, keeping the data.
func (t *Table) SetOptions(defs []ColumnDef, opts Options) error {
	if err := t.configure(defs, t.data, opts); err != nil {
		return err
	}
	t.recompute()
	t.changed(ActionPropsUpdate)
	return nil
}

// SetServerData installs one page delivered by a server-side caller together
// with the total row count. Ledgers are reset since indices refer to the new page.
func (t *Table) SetServerData(rows []RowData, count int) {
	t.data = append([]RowData(nil), rows...)
	t.opts.Count = count
	t.order = identityOrder(len(t.data))
	t.selected.ClearAll()
	t.expanded.ClearAll()
	t.recompute()
}

// ToggleSort advances the click cycle of the named column. Other columns drop
// back to no sort.
func (t *Table) ToggleSort(name string) error {
	_, col, err := t.column(name)
	if err != nil {
		return err
	}
	if !col.Sortable {
		return nil
	}
	active := t.sort.Name == name
	current := SortNone
	if active {
		current = t.sort.Direction
	}
	next := NextSortDirection(col, current, active)
	t.applySort(SortSpec{Name: name, Direction: next})

	if t.opts.Hooks.OnColumnSortChange != nil {
		t.opts.Hooks.OnColumnSortChange(name, next)
	}
	t.changed(ActionSort)
	return nil
}

// SetSort sets the sort spec directly. A none direction or empty name clears it.
func (t *Table) SetSort(spec SortSpec) error {
	if spec.Name != "" {
		if _, _, err := t.column(spec.Name); err != nil {
			return err
		}
	}
	t.applySort(spec)
	t.changed(ActionSort)
	return nil
}

func (t *Table) applySort(spec SortSpec) {
	if !spec.Active() {
		t.sort = SortSpec{}
		t.order = identityOrder(len(t.data))
	} else {
		t.sort = spec
		if !t.opts.ServerSide {
			t.order = sortedOrder(t.data, t.columns, t.cmp, t.order, spec)
		}
	}
	t.recompute()
}

// UpdateFilter changes one column's filter entry as a control of kind would.
// An empty kind uses the column's own filter type. The page resets to 0.
func (t *Table) UpdateFilter(column string, kind FilterKind, values ...any) error {
	i, col, err := t.column(column)
	if err != nil {
		return err
	}
	if kind == "" {
		kind = col.FilterType
	}
	t.filters.Update(column, kind, values...)
	t.page = 0
	t.recompute()

	if t.opts.Hooks.OnFilterChange != nil {
		t.opts.Hooks.OnFilterChange(column, t.filters.Clone(), kind, i, t.result.Rows)
	}
	t.changed(ActionFilterChange)
	return nil
}

// RemoveFilterValue drops one accepted value from a column, as closing a
// filter chip does.
func (t *Table) RemoveFilterValue(column string, value any) error {
	i, col, err := t.column(column)
	if err != nil {
		return err
	}
	if !t.filters.Remove(column, value) {
		return nil
	}
	t.page = 0
	t.recompute()

	if t.opts.Hooks.OnFilterChipClose != nil {
		t.opts.Hooks.OnFilterChipClose(column, value, t.filters.Clone())
	}
	if t.opts.Hooks.OnFilterChange != nil {
		t.opts.Hooks.OnFilterChange(column, t.filters.Clone(), col.FilterType, i, t.result.Rows)
	}
	t.changed(ActionFilterChange)
	return nil
}

// ResetFilters clears every filter entry.
func (t *Table) ResetFilters() {
	t.filters = make(FilterState)
	t.page = 0
	t.recompute()

	if t.opts.Hooks.OnFilterChange != nil {
		t.opts.Hooks.OnFilterChange("", t.filters.Clone(), "", -1, t.result.Rows)
	}
	t.changed(ActionResetFilters)
}

// SetSearchText changes the search text and resets the page to 0.
func (t *Table) SetSearchText(text string) {
	t.searchText = text
	if text != "" {
		t.searchOpen = true
	}
	t.page = 0
	t.recompute()

	if t.opts.Hooks.OnSearchChange != nil {
		t.opts.Hooks.OnSearchChange(text)
	}
	t.changed(ActionSearch)
}

func (t *Table) OpenSearch() {
	if t.searchOpen {
		return
	}
	t.searchOpen = true
	if t.opts.Hooks.OnSearchOpen != nil {
		t.opts.Hooks.OnSearchOpen()
	}
	t.changed(ActionSearchOpen)
}

// CloseSearch hides the search box and clears its text, unless search is
// configured to stay open.
func (t *Table) CloseSearch() {
	if t.opts.SearchAlwaysOpen || !t.searchOpen {
		return
	}
	t.searchOpen = false
	t.searchText = ""
	t.recompute()

	if t.opts.Hooks.OnSearchClose != nil {
		t.opts.Hooks.OnSearchClose()
	}
	t.changed(ActionSearchClose)
}

// ChangePage moves to page, clamped into range.
func (t *Table) ChangePage(page int) {
	t.page = page
	t.recompute()

	if t.opts.Hooks.OnChangePage != nil {
		t.opts.Hooks.OnChangePage(t.page)
	}
	t.changed(ActionChangePage)
}

// ChangeRowsPerPage sets the page size and re-clamps the page.
func (t *Table) ChangeRowsPerPage(rowsPerPage int) error {
	if rowsPerPage <= 0 {
		return fmt.Errorf("rows per page must be positive, got %d", rowsPerPage)
	}
	t.rowsPerPage = rowsPerPage
	t.recompute()

	if t.opts.Hooks.OnChangeRowsPerPage != nil {
		t.opts.Hooks.OnChangeRowsPerPage(rowsPerPage)
	}
	t.changed(ActionChangeRowsPerPage)
	return nil
}

// ToggleColumn flips a column's visibility.
func (t *Table) ToggleColumn(name string) error {
	i, col, err := t.column(name)
	if err != nil {
		return err
	}
	if !col.Viewable {
		return nil
	}
	t.columns[i].Visible = !col.Visible
	t.recompute()

	if t.opts.Hooks.OnViewColumnsChange != nil {
		t.opts.Hooks.OnViewColumnsChange(name, t.columns[i].Visible)
	}
	t.changed(ActionViewColumnsChange)
	return nil
}

func (t *Table) checkRow(dataIndex int) error {
	if dataIndex < 0 || dataIndex >= len(t.data) {
		return fmt.Errorf("%w: %d", ErrRowOutOfRange, dataIndex)
	}
	return nil
}

// SelectRow toggles a row's selection. With extend set it acts as a
// shift-click: the run from the anchor to the row, in current page order.
func (t *Table) SelectRow(dataIndex int, extend bool) error {
	if err := t.checkRow(dataIndex); err != nil {
		return err
	}
	before := t.selected.Rows()
	if extend {
		t.selected.Extend(dataIndex, t.pageOrder())
	} else {
		t.selected.Toggle(dataIndex)
	}
	t.selectionChanged(before)
	return nil
}

// SelectAll selects every displayed row, or clears the selection. Displayed
// means every row passing filter and search, or only the current page when
// SelectVisibleOnly is set.
func (t *Table) SelectAll(selected bool) {
	before := t.selected.Rows()
	if selected {
		candidates := t.result.Matched
		if t.opts.SelectVisibleOnly {
			candidates = t.pageOrder()
		}
		t.selected.SelectAll(candidates)
	} else {
		t.selected.ClearAll()
	}
	t.selectionChanged(before)
}

// SetSelectedRows replaces the selection programmatically. v may be any shape
// NormalizeSelection accepts.
func (t *Table) SetSelectedRows(v any) error {
	rows, err := NormalizeSelection(v)
	if err != nil {
		return err
	}
	before := t.selected.Rows()
	if err := t.selected.Set(rows, len(t.data)); err != nil {
		return err
	}
	t.selectionChanged(before)
	return nil
}

func (t *Table) selectionChanged(before []int) {
	after := t.selected.Rows()
	changed := diffRows(before, after)
	if len(changed) == 0 {
		return
	}
	if t.opts.Hooks.OnRowSelectionChange != nil {
		t.opts.Hooks.OnRowSelectionChange(changed, after)
	}
	t.changed(ActionRowSelectionChange)
}

// ToggleExpand flips a row's expansion. It is a no-op unless rows are expandable.
func (t *Table) ToggleExpand(dataIndex int) error {
	if err := t.checkRow(dataIndex); err != nil {
		return err
	}
	before := t.expanded.Rows()
	t.expanded.Toggle(dataIndex)
	t.expansionChanged(before)
	return nil
}

// SetExpandedRows replaces the expanded rows programmatically.
func (t *Table) SetExpandedRows(v any) error {
	rows, err := NormalizeSelection(v)
	if err != nil {
		return err
	}
	before := t.expanded.Rows()
	if err := t.expanded.Set(rows, len(t.data)); err != nil {
		return err
	}
	t.expansionChanged(before)
	return nil
}

func (t *Table) expansionChanged(before []int) {
	after := t.expanded.Rows()
	changed := diffRows(before, after)
	if len(changed) == 0 {
		return
	}
	if t.opts.Hooks.OnRowExpansionChange != nil {
		t.opts.Hooks.OnRowExpansionChange(changed, after)
	}
	t.changed(ActionRowExpansionChange)
}

// DeleteSelected removes the selected rows unless OnRowsDelete vetoes it.
// Remaining rows get new data indices and both ledgers are cleared.
//
// In server-side mode the rows belong to the caller: OnRowsDelete and
// OnTableChange report the request, both ledgers are cleared, and the local
// page is left alone for the next SetServerData. It reports whether rows were
// removed locally, so it is always false there.
func (t *Table) DeleteSelected() bool {
	deleted := t.selected.Rows()
	if len(deleted) == 0 {
		return false
	}
	drop := t.selected.Lookup()
	remaining := make([]RowData, 0, len(t.data)-len(deleted))
	for i, row := range t.data {
		if !drop[i] {
			remaining = append(remaining, row)
		}
	}
	if t.opts.Hooks.OnRowsDelete != nil && !t.opts.Hooks.OnRowsDelete(deleted, remaining) {
		t.log.Debug("row deletion vetoed", "rows", len(deleted))
		return false
	}

	t.selected.ClearAll()
	t.expanded.ClearAll()
	if t.opts.ServerSide {
		t.changed(ActionRowDelete)
		return false
	}

	t.data = remaining
	t.order = sortedOrder(t.data, t.columns, t.cmp, nil, t.sort)
	t.recompute()
	t.changed(ActionRowDelete)
	return true
}

// pageOrder is the data index order of the current page.
func (t *Table) pageOrder() []int {
	out := make([]int, len(t.result.Rows))
	for i, r := range t.result.Rows {
		out[i] = r.DataIndex
	}
	return out
}

// Download builds the CSV for the current table. ok is false when the
// download hook vetoed it.
func (t *Table) Download() (csv string, filename string, ok bool) {
	b := t.csvBuilder()
	filename = t.opts.DownloadOptions.Filename
	cols, rows, replaced, ok := t.runDownloadHook(b)
	if !ok {
		return "", filename, false
	}
	if replaced != "" {
		return replaced, filename, true
	}
	return b.Build(cols, rows), filename, true
}

// DownloadData is the projection other export formats write. It runs the
// download hook like Download does, so a veto applies to every format; a
// replacement CSV from the hook only applies to Download.
func (t *Table) DownloadData() ([]Column, []DownloadRow, bool) {
	cols, rows, _, ok := t.runDownloadHook(t.csvBuilder())
	if !ok {
		return nil, nil, false
	}
	return cols, rows, true
}

func (t *Table) csvBuilder() CSVBuilder {
	return CSVBuilder{Separator: t.opts.DownloadOptions.Separator}
}

func (t *Table) runDownloadHook(b CSVBuilder) ([]Column, []DownloadRow, string, bool) {
	cols, rows := t.DownloadProjection()
	hook := t.opts.Hooks.OnDownload
	if hook == nil {
		return cols, rows, "", true
	}
	out, keep := hook(b, cols, rows)
	if !keep {
		t.log.Debug("download vetoed")
	}
	return cols, rows, out, keep
}

// DownloadProjection is the columns and rows a download contains, honoring
// the displayed-only filter options. Rows carry raw values in current sort order.
func (t *Table) DownloadProjection() ([]Column, []DownloadRow) {
	fo := t.opts.DownloadOptions.FilterOptions
	cols := make([]Column, len(t.columns))
	copy(cols, t.columns)
	if fo.UseDisplayedColumnsOnly {
		for i := range cols {
			cols[i].Downloadable = cols[i].Downloadable && cols[i].Visible
		}
	}

	indices := t.order
	if fo.UseDisplayedRowsOnly {
		indices = t.result.Matched
	}
	rows := make([]DownloadRow, 0, len(indices))
	for _, idx := range indices {
		r := ResolveRow(t.data[idx], idx, t.columns)
		rows = append(rows, DownloadRow{DataIndex: idx, Data: r.Raw})
	}
	return cols, rows
}

// FilterData lists the values each filter control offers.
func (t *Table) FilterData() map[string][]any {
	return FilterData(t.data, t.columns, t.cmp)
}

func (t *Table) ID() string { return t.id }

func (t *Table) Options() Options { return t.opts }

// Columns returns a copy of the resolved columns.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// DisplayRows is the current page.
func (t *Table) DisplayRows() []DisplayRow { return t.result.Rows }

// Matched holds every row passing filter and search, in display order.
func (t *Table) Matched() []int { return append([]int(nil), t.result.Matched...) }

func (t *Table) Count() int       { return t.result.Count }
func (t *Table) Page() int        { return t.page }
func (t *Table) RowsPerPage() int { return t.rowsPerPage }
func (t *Table) Sort() SortSpec   { return t.sort }
func (t *Table) SearchText() string {
	return t.searchText
}
func (t *Table) Filters() FilterState { return t.filters.Clone() }
func (t *Table) Selected() []int      { return t.selected.Rows() }
func (t *Table) Expanded() []int      { return t.expanded.Rows() }
func (t *Table) Len() int             { return len(t.data) }

// Row returns the raw row at dataIndex.
func (t *Table) Row(dataIndex int) (RowData, bool) {
	if dataIndex < 0 || dataIndex >= len(t.data) {
		return nil, false
	}
	return t.data[dataIndex], true
}

// State snapshots the externally visible state.
func (t *Table) State() State {
	cols := make([]ColumnState, len(t.columns))
	for i, c := range t.columns {
		dir := SortNone
		if t.sort.Name == c.Name {
			dir = t.sort.Direction
		}
		cols[i] = ColumnState{
			Name:          c.Name,
			Label:         c.Title(),
			Visible:       c.Visible,
			Sortable:      c.Sortable,
			Filterable:    c.Filterable,
			Searchable:    c.Searchable,
			Downloadable:  c.Downloadable,
			Viewable:      c.Viewable,
			FilterType:    c.FilterType,
			FilterUI:      c.HasFilterUI(),
			SortDirection: dir,
		}
	}

	toolbar := ToolbarNone
	if t.selected.Len() > 0 {
		toolbar = t.opts.SelectToolbarPlacement
	}

	return State{
		TableID:            t.id,
		Columns:            cols,
		Filters:            t.filters.Clone(),
		SearchText:         t.searchText,
		SearchOpen:         t.searchOpen,
		Sort:               t.sort,
		Page:               t.page,
		RowsPerPage:        t.rowsPerPage,
		RowsPerPageOptions: append([]int{}, t.opts.RowsPerPageOptions...),
		Count:              t.result.Count,
		DisplayRows:        t.result.Rows,
		Selected:           t.selected.Rows(),
		Expanded:           t.expanded.Rows(),
		SelectableRows:     t.opts.SelectableRows,
		SelectToolbar:      toolbar,
		ServerSide:         t.opts.ServerSide,
	}
}
