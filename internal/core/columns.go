package core

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// resolveOptions fills unset table options from the framework defaults.
func resolveOptions(opts Options) Options {
	def := DefaultOptions()

	if _, ok := ParseFilterKind(string(opts.FilterType)); !ok {
		opts.FilterType = def.FilterType
	}
	if opts.RowsPerPage <= 0 {
		opts.RowsPerPage = def.RowsPerPage
	}
	if opts.RowsPerPageOptions == nil {
		opts.RowsPerPageOptions = append([]int(nil), DefaultRowsPerPageOptions...)
	}
	switch opts.SelectableRows {
	case SelectNone, SelectSingle, SelectMultiple:
	default:
		opts.SelectableRows = def.SelectableRows
	}
	switch opts.SelectToolbarPlacement {
	case ToolbarNone, ToolbarReplace, ToolbarAbove:
	default:
		opts.SelectToolbarPlacement = def.SelectToolbarPlacement
	}
	if opts.DownloadOptions.Filename == "" {
		opts.DownloadOptions.Filename = def.DownloadOptions.Filename
	}
	if opts.DownloadOptions.Separator == "" {
		opts.DownloadOptions.Separator = def.DownloadOptions.Separator
	}
	if opts.Locale == "" {
		opts.Locale = def.Locale
	}
	if opts.Page < 0 {
		opts.Page = 0
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// NormalizeColumns resolves the column layer over the table options into flat
// descriptors. Names must be non-empty and unique.
func NormalizeColumns(defs []ColumnDef, opts Options) ([]Column, error) {
	opts = resolveOptions(opts)
	seen := make(map[string]bool, len(defs))
	cols := make([]Column, len(defs))

	for i, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("column %d: %w", i, ErrEmptyColumnName)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("column %q: %w", def.Name, ErrDuplicateColumn)
		}
		seen[def.Name] = true

		o := def.Options
		col := Column{
			Name:                def.Name,
			Label:               def.Label,
			Index:               i,
			Visible:             boolOr(o.Display, true),
			Sortable:            boolOr(o.Sort, true),
			Filterable:          boolOr(o.Filter, true),
			Searchable:          boolOr(o.Searchable, true),
			Downloadable:        boolOr(o.Download, true),
			Viewable:            boolOr(o.ViewColumn, true),
			Empty:               o.Empty,
			FilterType:          opts.FilterType,
			FilterOptions:       o.FilterOptions,
			Render:              o.Render,
			RenderForCompare:    o.RenderForCompare,
			Compare:             o.SortCompare,
			SortDescFirst:       o.SortDescFirst,
			SortThirdClickReset: boolOr(o.SortThirdClickReset, opts.SortThirdClickReset),
		}
		if kind, ok := ParseFilterKind(string(o.FilterType)); ok {
			col.FilterType = kind
		}

		if opts.NestedDataDelimiter != "" && strings.Contains(def.Name, opts.NestedDataDelimiter) {
			col.Path = strings.Split(def.Name, opts.NestedDataDelimiter)
		}
		if o.JSONPath != "" {
			expr, err := jp.ParseString(o.JSONPath)
			if err != nil {
				opts.Logger.Warn("ignoring invalid column path",
					"column", def.Name,
					"path", o.JSONPath,
					"error", err,
				)
			} else {
				col.JSONPath = expr
			}
		}
		if col.FilterType == FilterCustom && col.FilterOptions.Display == nil {
			opts.Logger.Debug("custom filter has no display hook, filter control omitted", "column", def.Name)
		}

		cols[i] = col
	}
	return cols, nil
}

// Columns builds plain column definitions from names.
func Columns(names ...string) []ColumnDef {
	defs := make([]ColumnDef, len(names))
	for i, n := range names {
		defs[i] = ColumnDef{Name: n}
	}
	return defs
}

func columnIndex(cols []Column, name string) int {
	for i, c := range cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Bool returns a pointer to b, for ColumnOptions literals.
func Bool(b bool) *bool {
	return &b
}
