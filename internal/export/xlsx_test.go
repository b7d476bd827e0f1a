package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/datatable/internal/core"
)

func TestXLSX(t *testing.T) {
	defs := core.Columns("Name", "Secret", "Age", "Formula")
	defs[1].Options.Download = core.Bool(false)
	defs[3].Label = "=Label"
	cols, err := core.NormalizeColumns(defs, core.Options{})
	if err != nil {
		t.Fatal(err)
	}
	rows := []core.DownloadRow{
		{DataIndex: 0, Data: []any{"Joe James", "x", int64(30), "=SUM(A1)"}},
		{DataIndex: 1, Data: []any{"Bob Herm", "y", nil, "plain"}},
	}

	var buf bytes.Buffer
	if err := XLSX(&buf, "People", cols, rows); err != nil {
		t.Fatalf("XLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "People" {
		t.Fatalf("sheets = %v", got)
	}
	got, err := f.GetRows("People")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}

	want := [][]string{
		{"Name", "Age", "'=Label"},
		{"Joe James", "30", "'=SUM(A1)"},
		{"Bob Herm", "", "plain"},
	}
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		if strings.Join(got[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"People", "People"},
		{"", "Sheet1"},
		{"a/b:c", "a_b_c"},
		{"'quoted'", "quoted"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		if got := SheetName(tt.in); got != tt.want {
			t.Errorf("SheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"tableDownload.csv", "tableDownload.xlsx"},
		{"people", "people.xlsx"},
		{"", "tableDownload.xlsx"},
	}
	for _, tt := range tests {
		if got := Filename(tt.in); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
