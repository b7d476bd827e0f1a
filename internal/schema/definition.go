// Package schema loads dataset definitions from YAML files and turns them
// into core.Dataset values. A definition names its columns and options and
// points at its rows: a CSV or JSON data file next to it, inline rows, or a
// database table served page by page.
package schema

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/JonMunkholm/datatable/internal/core"
)

// Definition is one dataset file.
type Definition struct {
	Key         string `yaml:"key"`
	Group       string `yaml:"group"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	// StorageKey persists table state (sort, filters, search, page, visible
	// columns) under this key.
	StorageKey string `yaml:"storage_key"`

	// Data is a .csv or .json file, relative to the definition file.
	Data string `yaml:"data"`
	// DataPath is a JSONPath selecting the row array inside a JSON data file.
	DataPath string `yaml:"data_path"`
	// CSVComma is the field separator of a CSV data file (default ",").
	CSVComma string `yaml:"csv_comma"`
	// Rows holds inline rows when there is no data file.
	Rows []any `yaml:"rows"`
	// Source serves the rows from a database table instead.
	Source *Source `yaml:"source"`

	Options OptionsDef   `yaml:"options"`
	Columns []ColumnSpec `yaml:"columns"`
}

// Source names the database table behind a server-side dataset.
type Source struct {
	Table string `yaml:"table"`
	// Columns maps column names to SQL column names. Filled from the column
	// specs' sql fields.
	Columns map[string]string `yaml:"-"`
}

// ColumnSpec is one column of a definition.
type ColumnSpec struct {
	Name   string    `yaml:"name"`
	Label  string    `yaml:"label"`
	Type   FieldType `yaml:"type"`
	Header string    `yaml:"header"`
	SQL    string    `yaml:"sql"`
	Path   string    `yaml:"path"`
	// Format is a time layout for date columns or a fmt verb for numeric ones.
	Format string `yaml:"format"`

	Display    *bool `yaml:"display"`
	Sort       *bool `yaml:"sort"`
	Filter     *bool `yaml:"filter"`
	Searchable *bool `yaml:"searchable"`
	Download   *bool `yaml:"download"`
	ViewColumn *bool `yaml:"view_column"`
	Empty      bool  `yaml:"empty"`

	FilterType          string `yaml:"filter_type"`
	FilterNames         []any  `yaml:"filter_names"`
	RenderForCompare    bool   `yaml:"render_for_compare"`
	SortDescFirst       bool   `yaml:"sort_desc_first"`
	SortThirdClickReset *bool  `yaml:"sort_third_click_reset"`
}

func (c ColumnSpec) headerName() string {
	if c.Header != "" {
		return c.Header
	}
	return c.Name
}

// SortDef is the initial sort of a definition.
type SortDef struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"`
}

// DownloadDef configures CSV downloads.
type DownloadDef struct {
	Filename             string `yaml:"filename"`
	Separator            string `yaml:"separator"`
	DisplayedColumnsOnly bool   `yaml:"displayed_columns_only"`
	DisplayedRowsOnly    bool   `yaml:"displayed_rows_only"`
}

// OptionsDef is the table layer of a definition. Unset fields inherit the
// server defaults.
type OptionsDef struct {
	FilterType         string   `yaml:"filter_type"`
	Sort               *SortDef `yaml:"sort"`
	RowsPerPage        int      `yaml:"rows_per_page"`
	RowsPerPageOptions []int    `yaml:"rows_per_page_options"`
	Count              int      `yaml:"count"`

	SelectableRows         string `yaml:"selectable_rows"`
	SelectToolbarPlacement string `yaml:"select_toolbar_placement"`
	SelectVisibleOnly      bool   `yaml:"select_visible_only"`
	RowsSelected           []int  `yaml:"rows_selected"`

	ExpandableRows bool  `yaml:"expandable_rows"`
	RowsExpanded   []int `yaml:"rows_expanded"`

	NestedDataDelimiter string `yaml:"nested_data_delimiter"`

	SearchText       string `yaml:"search_text"`
	SearchOpen       bool   `yaml:"search_open"`
	SearchAlwaysOpen bool   `yaml:"search_always_open"`
	CaseSensitive    bool   `yaml:"case_sensitive"`

	SortThirdClickReset bool   `yaml:"sort_third_click_reset"`
	Locale              string `yaml:"locale"`

	Download DownloadDef `yaml:"download"`
}

// Validate collects every problem with the definition.
func (d *Definition) Validate() error {
	var errs []string

	if d.Key == "" {
		errs = append(errs, "key is required")
	}
	if len(d.Columns) == 0 {
		errs = append(errs, "at least one column is required")
	}

	seen := make(map[string]bool, len(d.Columns))
	for i, c := range d.Columns {
		switch {
		case c.Name == "":
			errs = append(errs, fmt.Sprintf("columns[%d]: name is required", i))
		case seen[c.Name]:
			errs = append(errs, fmt.Sprintf("columns[%d]: duplicate name %q", i, c.Name))
		}
		seen[c.Name] = true
		if c.FilterType != "" {
			if _, ok := core.ParseFilterKind(c.FilterType); !ok {
				errs = append(errs, fmt.Sprintf("columns[%d]: unknown filter_type %q", i, c.FilterType))
			}
		}
	}

	sources := 0
	if d.Data != "" {
		sources++
	}
	if d.Rows != nil {
		sources++
	}
	if d.Source != nil {
		sources++
		if d.Source.Table == "" {
			errs = append(errs, "source.table is required")
		}
	}
	if sources > 1 {
		errs = append(errs, "only one of data, rows or source may be set")
	}
	if d.CSVComma != "" && utf8.RuneCountInString(d.CSVComma) != 1 {
		errs = append(errs, fmt.Sprintf("csv_comma must be a single character, got %q", d.CSVComma))
	}

	o := d.Options
	if o.FilterType != "" {
		if _, ok := core.ParseFilterKind(o.FilterType); !ok {
			errs = append(errs, fmt.Sprintf("options.filter_type: unknown %q", o.FilterType))
		}
	}
	if o.RowsPerPage < 0 {
		errs = append(errs, "options.rows_per_page must be positive")
	}
	for _, n := range o.RowsPerPageOptions {
		if n <= 0 {
			errs = append(errs, fmt.Sprintf("options.rows_per_page_options: %d is not positive", n))
		}
	}
	if o.Sort != nil {
		if !seen[o.Sort.Name] {
			errs = append(errs, fmt.Sprintf("options.sort: unknown column %q", o.Sort.Name))
		}
		if dir := core.SortDirection(strings.ToLower(o.Sort.Direction)); dir != "" && !dir.Valid() {
			errs = append(errs, fmt.Sprintf("options.sort: unknown direction %q", o.Sort.Direction))
		}
	}
	switch core.SelectMode(o.SelectableRows) {
	case "", core.SelectNone, core.SelectSingle, core.SelectMultiple:
	default:
		errs = append(errs, fmt.Sprintf("options.selectable_rows: unknown %q", o.SelectableRows))
	}
	switch core.ToolbarPlacement(o.SelectToolbarPlacement) {
	case "", core.ToolbarNone, core.ToolbarReplace, core.ToolbarAbove:
	default:
		errs = append(errs, fmt.Sprintf("options.select_toolbar_placement: unknown %q", o.SelectToolbarPlacement))
	}

	if len(errs) > 0 {
		return fmt.Errorf("dataset %q: %s", d.Key, strings.Join(errs, "; "))
	}
	return nil
}

// columnDefs converts the column specs into engine column definitions.
func (d *Definition) columnDefs() []core.ColumnDef {
	defs := make([]core.ColumnDef, len(d.Columns))
	for i, c := range d.Columns {
		defs[i] = core.ColumnDef{
			Name:  c.Name,
			Label: c.Label,
			Options: core.ColumnOptions{
				Display:             c.Display,
				Sort:                c.Sort,
				Filter:              c.Filter,
				Searchable:          c.Searchable,
				Download:            c.Download,
				ViewColumn:          c.ViewColumn,
				Empty:               c.Empty,
				FilterOptions:       core.FilterOptions{Names: c.FilterNames},
				Render:              c.render(),
				RenderForCompare:    c.RenderForCompare,
				SortDescFirst:       c.SortDescFirst,
				SortThirdClickReset: c.SortThirdClickReset,
				JSONPath:            c.Path,
			},
		}
		if kind, ok := core.ParseFilterKind(c.FilterType); ok {
			defs[i].Options.FilterType = kind
		}
	}
	return defs
}

// render formats typed cells for display. Dates always render as text so the
// search matcher sees what the user sees.
func (c ColumnSpec) render() core.RenderFunc {
	switch c.Type {
	case FieldDate:
		layout := c.Format
		if layout == "" {
			layout = time.DateOnly
		}
		return func(v any, _ int, _ core.RowData) any {
			if t, ok := v.(time.Time); ok {
				return t.Format(layout)
			}
			return v
		}
	case FieldNumeric:
		if c.Format == "" {
			return nil
		}
		verb := c.Format
		floatVerb := strings.ContainsAny(verb, "eEfFgG")
		return func(v any, _ int, _ core.RowData) any {
			switch n := v.(type) {
			case int64:
				if floatVerb {
					return fmt.Sprintf(verb, float64(n))
				}
				return fmt.Sprintf(verb, n)
			case float64:
				return fmt.Sprintf(verb, n)
			}
			return v
		}
	}
	return nil
}

// options converts the table layer into engine options.
func (d *Definition) options() core.Options {
	o := d.Options
	opts := core.Options{
		RowsPerPage:            o.RowsPerPage,
		RowsPerPageOptions:     o.RowsPerPageOptions,
		Count:                  o.Count,
		SelectableRows:         core.SelectMode(o.SelectableRows),
		SelectToolbarPlacement: core.ToolbarPlacement(o.SelectToolbarPlacement),
		SelectVisibleOnly:      o.SelectVisibleOnly,
		RowsSelected:           o.RowsSelected,
		ExpandableRows:         o.ExpandableRows,
		RowsExpanded:           o.RowsExpanded,
		NestedDataDelimiter:    o.NestedDataDelimiter,
		SearchText:             o.SearchText,
		SearchOpen:             o.SearchOpen,
		SearchAlwaysOpen:       o.SearchAlwaysOpen,
		CaseSensitive:          o.CaseSensitive,
		SortThirdClickReset:    o.SortThirdClickReset,
		Locale:                 o.Locale,
		DownloadOptions: core.DownloadOptions{
			Filename:  o.Download.Filename,
			Separator: o.Download.Separator,
			FilterOptions: core.DownloadFilterOptions{
				UseDisplayedColumnsOnly: o.Download.DisplayedColumnsOnly,
				UseDisplayedRowsOnly:    o.Download.DisplayedRowsOnly,
			},
		},
	}
	if kind, ok := core.ParseFilterKind(o.FilterType); ok {
		opts.FilterType = kind
	}
	if o.Sort != nil {
		dir := core.SortDirection(strings.ToLower(o.Sort.Direction))
		if dir == "" {
			dir = core.SortAsc
		}
		opts.SortOrder = core.SortSpec{Name: o.Sort.Name, Direction: dir}
	}
	return opts
}

// sqlColumns maps every non-empty column to its SQL name.
func (d *Definition) sqlColumns() map[string]string {
	out := make(map[string]string, len(d.Columns))
	for _, c := range d.Columns {
		if c.Empty {
			continue
		}
		name := c.SQL
		if name == "" {
			name = c.Name
		}
		out[c.Name] = name
	}
	return out
}

// convertRows applies the column types to decoded rows: array rows by
// position, keyed rows by column name.
func (d *Definition) convertRows(rows []any) []core.RowData {
	out := make([]core.RowData, len(rows))
	for i, r := range rows {
		switch row := r.(type) {
		case []any:
			for j, c := range d.Columns {
				if j < len(row) {
					row[j] = c.Type.ConvertValue(row[j])
				}
			}
		case map[string]any:
			for _, c := range d.Columns {
				if v, ok := row[c.Name]; ok {
					row[c.Name] = c.Type.ConvertValue(v)
				}
			}
		}
		out[i] = r
	}
	return out
}
