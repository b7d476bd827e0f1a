package core

import (
	"log/slog"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// RowData is one raw input row: either an ordered []any or a keyed map[string]any.
type RowData = any

// SortDirection is the state of a column in the sort click cycle.
type SortDirection string

const (
	SortNone SortDirection = "none"
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Valid reports whether d is one of the known directions.
func (d SortDirection) Valid() bool {
	switch d {
	case SortNone, SortAsc, SortDesc:
		return true
	}
	return false
}

// SortSpec names the single active sort column. An empty Name means no sort.
type SortSpec struct {
	Name      string        `json:"name"`
	Direction SortDirection `json:"direction"`
}

// Active reports whether the spec orders rows at all.
func (s SortSpec) Active() bool {
	return s.Name != "" && (s.Direction == SortAsc || s.Direction == SortDesc)
}

// FilterKind selects how a column's filter entry is matched.
type FilterKind string

const (
	FilterCheckbox    FilterKind = "checkbox"
	FilterDropdown    FilterKind = "dropdown"
	FilterMultiselect FilterKind = "multiselect"
	FilterTextField   FilterKind = "textField"
	FilterCustom      FilterKind = "custom"
)

// AllFilterKinds returns every supported filter kind.
func AllFilterKinds() []FilterKind {
	return []FilterKind{FilterCheckbox, FilterDropdown, FilterMultiselect, FilterTextField, FilterCustom}
}

// ParseFilterKind maps a configuration string onto a FilterKind.
// Matching is case-insensitive so "textfield" and "textField" are equivalent.
func ParseFilterKind(s string) (FilterKind, bool) {
	for _, k := range AllFilterKinds() {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

// SelectMode is the cardinality policy of a ledger.
type SelectMode string

const (
	SelectNone     SelectMode = "none"
	SelectSingle   SelectMode = "single"
	SelectMultiple SelectMode = "multiple"
)

// ToolbarPlacement controls where the selected-rows toolbar appears.
type ToolbarPlacement string

const (
	ToolbarNone    ToolbarPlacement = "none"
	ToolbarReplace ToolbarPlacement = "replace"
	ToolbarAbove   ToolbarPlacement = "above"
)

// FilterLogic decides whether a resolved cell value passes a column's active
// filter list. Returning true keeps the row.
type FilterLogic func(value any, filters []any, row RowData) bool

// FilterDisplay renders a custom filter control. The returned value is opaque
// to the engine and handed to the rendering layer untouched.
type FilterDisplay func(column Column, filters []any) any

// FilterOptions configures a column's filter beyond its kind.
type FilterOptions struct {
	// Names replaces the distinct data values offered by the filter UI.
	Names   []any
	Logic   FilterLogic
	Display FilterDisplay
}

// RenderFunc produces a display value for a raw cell.
type RenderFunc func(value any, dataIndex int, row RowData) any

// CompareFunc orders two raw resolved values for the given direction.
type CompareFunc func(a, b any, dir SortDirection) int

// SearchFunc replaces the default search matcher.
type SearchFunc func(searchText string, row RowData, columns []Column) bool

// ColumnOptions is the column layer of the configuration. Nil pointers inherit
// from the table and framework layers.
type ColumnOptions struct {
	Display    *bool
	Sort       *bool
	Filter     *bool
	Searchable *bool
	Download   *bool
	ViewColumn *bool

	// Empty marks a column with no backing data.
	Empty bool

	FilterType    FilterKind
	FilterOptions FilterOptions

	Render           RenderFunc
	RenderForCompare bool

	SortCompare         CompareFunc
	SortDescFirst       bool
	SortThirdClickReset *bool

	// JSONPath resolves keyed-record rows with a JSONPath expression instead of
	// the column name.
	JSONPath string
}

// ColumnDef is a caller-supplied column.
type ColumnDef struct {
	Name    string
	Label   string
	Options ColumnOptions
}

// Column is the flat, resolved column descriptor used by every stage.
type Column struct {
	Name  string
	Label string
	// Index is the column's input position, used to address array-shaped rows.
	Index int

	Visible      bool
	Sortable     bool
	Filterable   bool
	Searchable   bool
	Downloadable bool
	Viewable     bool
	Empty        bool

	FilterType    FilterKind
	FilterOptions FilterOptions

	// Path is the nested key path when nested data access is enabled.
	Path     []string
	JSONPath jp.Expr

	Render           RenderFunc
	RenderForCompare bool

	Compare             CompareFunc
	SortDescFirst       bool
	SortThirdClickReset bool
}

// Title is the label if set, else the name.
func (c Column) Title() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// HasFilterUI reports whether a filter control should be offered for the column.
// A custom filter without a display hook gets none.
func (c Column) HasFilterUI() bool {
	if !c.Filterable {
		return false
	}
	return c.FilterType != FilterCustom || c.FilterOptions.Display != nil
}

// DisplayRow is one row of the pipeline output.
type DisplayRow struct {
	DataIndex int   `json:"dataIndex"`
	Data      []any `json:"data"`
	Raw       []any `json:"-"`
}

// DownloadFilterOptions restricts what the download contains.
type DownloadFilterOptions struct {
	UseDisplayedColumnsOnly bool `json:"useDisplayedColumnsOnly"`
	UseDisplayedRowsOnly    bool `json:"useDisplayedRowsOnly"`
}

// DownloadOptions configures the CSV Builder.
type DownloadOptions struct {
	Filename      string                `json:"filename"`
	Separator     string                `json:"separator"`
	FilterOptions DownloadFilterOptions `json:"filterOptions"`
}

// Options is the table layer of the configuration.
type Options struct {
	TableID string

	FilterType         FilterKind
	SortOrder          SortSpec
	Page               int
	RowsPerPage        int
	RowsPerPageOptions []int

	ServerSide bool
	// Count is the caller-supplied total row count in server-side mode.
	Count int

	SelectableRows         SelectMode
	SelectToolbarPlacement ToolbarPlacement
	SelectVisibleOnly      bool
	RowsSelected           []int
	IsRowSelectable        func(dataIndex int, selected []int) bool

	ExpandableRows  bool
	RowsExpanded    []int
	IsRowExpandable func(dataIndex int, expanded []int) bool

	// NestedDataDelimiter enables nested access for keyed rows when non-empty.
	NestedDataDelimiter string

	SearchText       string
	SearchOpen       bool
	SearchAlwaysOpen bool
	CaseSensitive    bool
	CustomSearch     SearchFunc

	// SortThirdClickReset is the table-wide default for columns that leave it unset.
	SortThirdClickReset bool

	DownloadOptions DownloadOptions
	Locale          string

	Hooks  Hooks
	Logger *slog.Logger
}

// DefaultOptions is the framework layer of the configuration.
func DefaultOptions() Options {
	return Options{
		FilterType:             FilterCheckbox,
		RowsPerPage:            DefaultRowsPerPage,
		SelectableRows:         SelectMultiple,
		SelectToolbarPlacement: ToolbarReplace,
		DownloadOptions: DownloadOptions{
			Filename:  DefaultDownloadFilename,
			Separator: ",",
		},
		Locale: "en",
	}
}

const (
	DefaultRowsPerPage      = 10
	DefaultDownloadFilename = "tableDownload.csv"
)

// DefaultRowsPerPageOptions is used when the caller leaves RowsPerPageOptions nil.
// An empty non-nil slice disables the selector.
var DefaultRowsPerPageOptions = []int{10, 15, 100}
