package schema

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/JonMunkholm/datatable/internal/core"
)

const peopleYAML = `
key: people
group: Demo
title: People
storage_key: people-v1
data: people.csv
options:
  rows_per_page: 5
  rows_per_page_options: [5, 10]
  sort:
    name: Joined
    direction: desc
  selectable_rows: single
  download:
    filename: people.csv
    separator: ";"
columns:
  - name: Name
  - name: Company
    filter_type: dropdown
  - name: Salary
    type: numeric
    format: "%.2f"
  - name: Joined
    type: date
    format: "02/01/2006"
  - name: Notes
    empty: true
    download: false
`

const peopleCSV = "Name,Company,Salary,Joined\n" +
	"Joe James,Test Corp,\"$1,000\",2020-01-02\n" +
	"John Walsh,Test Corp,,2019-05-06\n"

const nestedYAML = `
title: Cities
data: cities.json
data_path: $.results
options:
  nested_data_delimiter: "."
columns:
  - name: Name
  - name: Location.City
  - name: State
    path: $.Location.State
  - name: Population
    type: numeric
`

const nestedJSON = `{"results": [
  {"Name": "Joe", "Location": {"City": "Yonkers", "State": "NY"}, "Population": "1,000"},
  {"Name": "Bob", "Location": {"City": "Tampa", "State": "FL"}, "Population": 42}
]}`

const inlineYAML = `
key: inline
rows:
  - [a, "1"]
  - [b, "2"]
columns:
  - name: Letter
  - name: Number
    type: numeric
`

func TestLoader_Load(t *testing.T) {
	fsys := fstest.MapFS{
		"hr/people.yaml":      {Data: []byte(peopleYAML)},
		"hr/people.csv":       {Data: []byte(peopleCSV)},
		"geo/cities.yml":      {Data: []byte(nestedYAML)},
		"geo/cities.json":     {Data: []byte(nestedJSON)},
		"inline.yaml":         {Data: []byte(inlineYAML)},
		"notes/readme.txt":    {Data: []byte("not a dataset")},
		"geo/unused/data.csv": {Data: []byte("x\n1\n")},
	}

	datasets, err := (&Loader{FS: fsys, Pattern: DefaultPattern}).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(datasets) != 3 {
		t.Fatalf("datasets = %d, want 3", len(datasets))
	}

	byKey := make(map[string]core.Dataset)
	for _, ds := range datasets {
		byKey[ds.Key] = ds
	}

	t.Run("csv", func(t *testing.T) {
		ds, ok := byKey["people"]
		if !ok {
			t.Fatal("people dataset missing")
		}
		if ds.Group != "Demo" || ds.StorageKey != "people-v1" {
			t.Errorf("metadata = %q, %q", ds.Group, ds.StorageKey)
		}
		if len(ds.Rows) != 2 {
			t.Fatalf("rows = %d, want 2", len(ds.Rows))
		}
		row := ds.Rows[0].([]any)
		if row[2] != int64(1000) {
			t.Errorf("salary = %v (%T), want 1000", row[2], row[2])
		}
		if _, ok := row[3].(time.Time); !ok {
			t.Errorf("joined = %T, want time.Time", row[3])
		}
		if row[4] != nil {
			t.Errorf("empty column = %v", row[4])
		}

		o := ds.Options
		if o.RowsPerPage != 5 || len(o.RowsPerPageOptions) != 2 {
			t.Errorf("paging options = %d, %v", o.RowsPerPage, o.RowsPerPageOptions)
		}
		if o.SortOrder != (core.SortSpec{Name: "Joined", Direction: core.SortDesc}) {
			t.Errorf("SortOrder = %+v", o.SortOrder)
		}
		if o.SelectableRows != core.SelectSingle {
			t.Errorf("SelectableRows = %q", o.SelectableRows)
		}
		if o.DownloadOptions.Separator != ";" {
			t.Errorf("Separator = %q", o.DownloadOptions.Separator)
		}
		if got := ds.Columns[1].Options.FilterType; got != core.FilterDropdown {
			t.Errorf("Company filter type = %q", got)
		}
	})

	t.Run("renders typed cells", func(t *testing.T) {
		tbl, err := core.New(byKey["people"].Columns, byKey["people"].Rows, byKey["people"].Options)
		if err != nil {
			t.Fatalf("core.New() error = %v", err)
		}
		rows := tbl.DisplayRows()
		if len(rows) != 2 {
			t.Fatalf("display rows = %d", len(rows))
		}
		// Sorted by Joined descending: Joe (2020) before John (2019).
		if rows[0].Data[0] != "Joe James" {
			t.Errorf("first row = %v", rows[0].Data[0])
		}
		if rows[0].Data[2] != "1000.00" || rows[0].Data[3] != "02/01/2020" {
			t.Errorf("rendered = %v, %v", rows[0].Data[2], rows[0].Data[3])
		}

		tbl.SetSearchText("05/2019")
		if tbl.Count() != 1 {
			t.Errorf("search on rendered date matched %d rows, want 1", tbl.Count())
		}
	})

	t.Run("json", func(t *testing.T) {
		ds, ok := byKey["cities"]
		if !ok {
			t.Fatal("cities dataset missing (key should default to the file name)")
		}
		tbl, err := core.New(ds.Columns, ds.Rows, ds.Options)
		if err != nil {
			t.Fatalf("core.New() error = %v", err)
		}
		rows := tbl.DisplayRows()
		if rows[0].Data[1] != "Yonkers" || rows[0].Data[2] != "NY" {
			t.Errorf("nested values = %v, %v", rows[0].Data[1], rows[0].Data[2])
		}
		if rows[0].Data[3] != int64(1000) {
			t.Errorf("converted population = %v (%T)", rows[0].Data[3], rows[0].Data[3])
		}
	})

	t.Run("inline", func(t *testing.T) {
		ds := byKey["inline"]
		if len(ds.Rows) != 2 {
			t.Fatalf("rows = %d", len(ds.Rows))
		}
		if got := ds.Rows[1].([]any)[1]; got != int64(2) {
			t.Errorf("inline numeric = %v (%T)", got, got)
		}
	})
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name:    "unknown field",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("key: a\ncolour: red\ncolumns: [{name: A}]\n")}},
			wantErr: "colour",
		},
		{
			name:    "no columns",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("key: a\n")}},
			wantErr: "at least one column",
		},
		{
			name:    "duplicate column",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("columns: [{name: A}, {name: A}]\n")}},
			wantErr: "duplicate name",
		},
		{
			name:    "unknown field type",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("columns: [{name: A, type: blob}]\n")}},
			wantErr: "unknown field type",
		},
		{
			name:    "unknown sort column",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("options: {sort: {name: B}}\ncolumns: [{name: A}]\n")}},
			wantErr: "options.sort",
		},
		{
			name:    "missing data file",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("data: a.csv\ncolumns: [{name: A}]\n")}},
			wantErr: "read data",
		},
		{
			name: "unsupported data file",
			files: fstest.MapFS{
				"a.yaml": {Data: []byte("data: a.xml\ncolumns: [{name: A}]\n")},
				"a.xml":  {Data: []byte("<a/>")},
			},
			wantErr: "unsupported data file",
		},
		{
			name: "json object without path",
			files: fstest.MapFS{
				"a.yaml": {Data: []byte("data: a.json\ncolumns: [{name: A}]\n")},
				"a.json": {Data: []byte(`{"A": 1}`)},
			},
			wantErr: "array of rows",
		},
		{
			name:    "data and rows together",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("data: a.csv\nrows: []\ncolumns: [{name: A}]\n")}},
			wantErr: "only one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Loader{FS: tt.files}).Load()
			if err == nil {
				t.Fatalf("Load() expected error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should mention %q: %v", tt.wantErr, err)
			}
		})
	}
}

type stubSource struct{}

func (stubSource) Fetch(context.Context, core.Query, []core.Column) ([]core.RowData, int, error) {
	return nil, 0, nil
}

func TestLoader_Source(t *testing.T) {
	files := fstest.MapFS{
		"orders.yaml": {Data: []byte(`
source:
  table: orders
columns:
  - name: ID
    sql: order_id
  - name: Customer
  - name: Flag
    empty: true
`)},
	}

	t.Run("skipped without database", func(t *testing.T) {
		datasets, err := (&Loader{FS: files}).Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(datasets) != 0 {
			t.Errorf("datasets = %d, want 0", len(datasets))
		}
	})

	t.Run("built with source func", func(t *testing.T) {
		var got Source
		l := &Loader{FS: files, Sources: func(src Source, _ []core.ColumnDef) (core.RowSource, error) {
			got = src
			return stubSource{}, nil
		}}
		datasets, err := l.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if len(datasets) != 1 || datasets[0].Source == nil || !datasets[0].Options.ServerSide {
			t.Fatalf("datasets = %+v", datasets)
		}
		if got.Table != "orders" || got.Columns["ID"] != "order_id" || got.Columns["Customer"] != "Customer" {
			t.Errorf("source = %+v", got)
		}
		if _, ok := got.Columns["Flag"]; ok {
			t.Error("empty column mapped to SQL")
		}
	})

	t.Run("source func error", func(t *testing.T) {
		l := &Loader{FS: files, Sources: func(Source, []core.ColumnDef) (core.RowSource, error) {
			return nil, errors.New("boom")
		}}
		if _, err := l.Load(); err == nil || !strings.Contains(err.Error(), "boom") {
			t.Errorf("Load() error = %v", err)
		}
	})
}

func TestLoader_Register(t *testing.T) {
	core.Clear()
	t.Cleanup(core.Clear)

	l := &Loader{FS: fstest.MapFS{"inline.yaml": {Data: []byte(inlineYAML)}}}
	n, err := l.Register()
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if n != 1 {
		t.Errorf("registered = %d, want 1", n)
	}
	if _, ok := core.Get("inline"); !ok {
		t.Error("inline dataset not registered")
	}

	if _, err := l.Register(); !errors.Is(err, core.ErrDuplicateDataset) {
		t.Errorf("second Register() error = %v, want ErrDuplicateDataset", err)
	}
}

func TestLoader_SampleDatasets(t *testing.T) {
	datasets, err := NewLoader("../../datasets", DefaultPattern, nil).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	byKey := make(map[string]core.Dataset)
	for _, ds := range datasets {
		byKey[ds.Key] = ds
	}
	if _, ok := byKey["orders"]; ok {
		t.Error("orders needs a database and should be skipped")
	}

	people, ok := byKey["people"]
	if !ok || len(people.Rows) != 30 {
		t.Fatalf("people = %+v", people.Info())
	}
	cities, ok := byKey["cities"]
	if !ok || len(cities.Rows) != 16 {
		t.Fatalf("cities = %+v", cities.Info())
	}

	tbl, err := core.New(cities.Columns, cities.Rows, cities.Options)
	if err != nil {
		t.Fatalf("core.New() error = %v", err)
	}
	if err := tbl.UpdateFilter("State", "", "TX"); err != nil {
		t.Fatal(err)
	}
	if got := tbl.Count(); got != 4 {
		t.Errorf("TX cities = %d, want 4", got)
	}
}
