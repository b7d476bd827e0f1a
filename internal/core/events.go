package core

// Action names the mutation reported to OnTableChange.
type Action string

const (
	ActionTableInit          Action = "tableInitialized"
	ActionPropsUpdate        Action = "propsUpdate"
	ActionSort               Action = "sort"
	ActionFilterChange       Action = "filterChange"
	ActionResetFilters       Action = "resetFilters"
	ActionSearch             Action = "search"
	ActionSearchOpen         Action = "onSearchOpen"
	ActionSearchClose        Action = "onSearchClose"
	ActionChangePage         Action = "changePage"
	ActionChangeRowsPerPage  Action = "changeRowsPerPage"
	ActionViewColumnsChange  Action = "viewColumnsChange"
	ActionRowSelectionChange Action = "rowSelectionChange"
	ActionRowExpansionChange Action = "expandRow"
	ActionRowDelete          Action = "rowDelete"
	ActionRestore            Action = "restore"
)

// Hooks are the table's callbacks. Every field is optional. They run
// synchronously, after the state change and recompute they report.
type Hooks struct {
	OnTableInit   func(action Action, state State)
	OnTableChange func(action Action, state State)

	OnColumnSortChange func(column string, direction SortDirection)
	// OnFilterChange receives the changed column ("" on reset), the full filter
	// state, the filter kind, the column index (-1 on reset) and the current page.
	OnFilterChange    func(column string, filters FilterState, kind FilterKind, columnIndex int, displayRows []DisplayRow)
	OnFilterChipClose func(column string, value any, filters FilterState)

	OnSearchChange func(text string)
	OnSearchOpen   func()
	OnSearchClose  func()

	OnChangePage        func(page int)
	OnChangeRowsPerPage func(rowsPerPage int)
	OnViewColumnsChange func(column string, visible bool)

	// OnRowSelectionChange receives the rows whose membership changed and the
	// full selection afterwards.
	OnRowSelectionChange func(changed []int, all []int)
	OnRowExpansionChange func(changed []int, all []int)

	// OnRowsDelete may veto a deletion by returning false.
	OnRowsDelete func(deleted []int, remaining []RowData) bool
	OnDownload   DownloadHook
}

// ColumnState is the per-column part of State.
type ColumnState struct {
	Name          string        `json:"name"`
	Label         string        `json:"label"`
	Visible       bool          `json:"visible"`
	Sortable      bool          `json:"sortable"`
	Filterable    bool          `json:"filterable"`
	Searchable    bool          `json:"searchable"`
	Downloadable  bool          `json:"downloadable"`
	Viewable      bool          `json:"viewable"`
	FilterType    FilterKind    `json:"filterType"`
	FilterUI      bool          `json:"filterUI"`
	SortDirection SortDirection `json:"sortDirection"`
}

// State is the externally visible table state after a mutation.
type State struct {
	TableID            string           `json:"tableId"`
	Columns            []ColumnState    `json:"columns"`
	Filters            FilterState      `json:"filterList"`
	SearchText         string           `json:"searchText"`
	SearchOpen         bool             `json:"searchOpen"`
	Sort               SortSpec         `json:"sortOrder"`
	Page               int              `json:"page"`
	RowsPerPage        int              `json:"rowsPerPage"`
	RowsPerPageOptions []int            `json:"rowsPerPageOptions"`
	Count              int              `json:"count"`
	DisplayRows        []DisplayRow     `json:"displayData"`
	Selected           []int            `json:"selectedRows"`
	Expanded           []int            `json:"expandedRows"`
	SelectableRows     SelectMode       `json:"selectableRows"`
	SelectToolbar      ToolbarPlacement `json:"selectToolbar"`
	ServerSide         bool             `json:"serverSide"`
}

func diffRows(before, after []int) []int {
	var changed []int
	inAfter := make(map[int]bool, len(after))
	for _, r := range after {
		inAfter[r] = true
	}
	inBefore := make(map[int]bool, len(before))
	for _, r := range before {
		inBefore[r] = true
		if !inAfter[r] {
			changed = append(changed, r)
		}
	}
	for _, r := range after {
		if !inBefore[r] {
			changed = append(changed, r)
		}
	}
	return changed
}
