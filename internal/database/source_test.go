package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/datatable/internal/core"
)

// fakeDB records statements and serves canned results.
type fakeDB struct {
	queries []string
	args    [][]interface{}

	count    int
	rows     [][]interface{}
	rowErr   error
	stateRaw []byte
	execErr  error
}

func (f *fakeDB) record(sql string, args []interface{}) {
	f.queries = append(f.queries, sql)
	f.args = append(f.args, args)
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.record(sql, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.record(sql, args)
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.record(sql, args)
	return fakeRow{db: f}
}

type fakeRow struct{ db *fakeDB }

func (r fakeRow) Scan(dest ...any) error {
	if r.db.rowErr != nil {
		return r.db.rowErr
	}
	switch d := dest[0].(type) {
	case *int:
		*d = r.db.count
	case *[]byte:
		*d = r.db.stateRaw
	}
	return nil
}

type fakeRows struct {
	rows [][]interface{}
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { r.pos++; return r.pos < len(r.rows) }
func (r *fakeRows) Scan(...any) error                            { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return append([]any(nil), r.rows[r.pos]...), nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func peopleColumns(t *testing.T) []core.Column {
	t.Helper()
	defs := core.Columns("Name", "City", "Notes")
	defs[2].Options.Empty = true
	cols, err := core.NormalizeColumns(defs, core.Options{})
	if err != nil {
		t.Fatalf("NormalizeColumns() error = %v", err)
	}
	return cols
}

func TestRowSource_Fetch(t *testing.T) {
	db := &fakeDB{
		count: 3,
		rows: [][]interface{}{
			{"James Houston", "Dallas", nil},
		},
	}
	src := NewRowSource(db, "people", map[string]string{"Name": "full_name", "City": "city"})

	q := core.Query{
		Filters:     core.FilterState{"City": {"Dallas", nil}},
		SearchText:  "jo_",
		Sort:        core.SortSpec{Name: "City", Direction: core.SortDesc},
		Page:        5,
		RowsPerPage: 2,
	}
	rows, total, err := src.Fetch(context.Background(), q, peopleColumns(t))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(rows) != 1 || rows[0].([]any)[0] != "James Houston" {
		t.Errorf("rows = %v", rows)
	}

	if len(db.queries) != 2 {
		t.Fatalf("queries = %d, want 2", len(db.queries))
	}

	where := ` WHERE ("city" IS NULL OR "city"::text IN ($1)) AND ("full_name"::text ILIKE $2 OR "city"::text ILIKE $2)`
	if want := `SELECT COUNT(*) FROM "people"` + where; db.queries[0] != want {
		t.Errorf("count query =\n%s\nwant\n%s", db.queries[0], want)
	}

	wantSelect := `SELECT "full_name", "city", NULL FROM "people"` + where +
		` ORDER BY "city" DESC NULLS LAST LIMIT $3 OFFSET $4`
	if db.queries[1] != wantSelect {
		t.Errorf("select query =\n%s\nwant\n%s", db.queries[1], wantSelect)
	}

	// Page 5 of 3 rows at 2 per page clamps to the last page.
	args := db.args[1]
	if len(args) != 4 || args[0] != "Dallas" || args[1] != `%jo\_%` || args[2] != 2 || args[3] != 2 {
		t.Errorf("select args = %v", args)
	}
}

func TestRowSource_Fetch_TextFieldAndDefaultOrder(t *testing.T) {
	db := &fakeDB{count: 0}
	src := NewRowSource(db, "people", map[string]string{"Name": "full_name", "City": "city"})

	defs := core.Columns("Name", "City")
	defs[1].Options.FilterType = core.FilterTextField
	cols, err := core.NormalizeColumns(defs, core.Options{})
	if err != nil {
		t.Fatal(err)
	}

	q := core.Query{Filters: core.FilterState{"City": {"york"}}, RowsPerPage: 10, CaseSensitive: true}
	rows, total, err := src.Fetch(context.Background(), q, cols)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if total != 0 || rows == nil || len(rows) != 0 {
		t.Errorf("rows = %v, total = %d", rows, total)
	}
	if !strings.Contains(db.queries[0], `"city"::text LIKE $1`) {
		t.Errorf("count query = %s", db.queries[0])
	}
	if !strings.Contains(db.queries[1], `ORDER BY "full_name" ASC LIMIT $2 OFFSET $3`) {
		t.Errorf("select query = %s", db.queries[1])
	}
}

func TestRowSource_Fetch_CountError(t *testing.T) {
	db := &fakeDB{rowErr: errors.New("connection refused")}
	src := NewRowSource(db, "people", map[string]string{"Name": "name"})

	_, _, err := src.Fetch(context.Background(), core.Query{}, peopleColumns(t))
	if err == nil || !strings.Contains(err.Error(), "count rows") {
		t.Errorf("Fetch() error = %v", err)
	}
}

func TestNormalizeValue(t *testing.T) {
	var num pgtype.Numeric
	if err := num.Scan("12.5"); err != nil {
		t.Fatal(err)
	}
	id := [16]byte{0x6b, 0xa7, 0xb8, 0x10, 0x9d, 0xad, 0x11, 0xd1, 0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8}

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"numeric", num, 12.5},
		{"invalid numeric", pgtype.Numeric{}, nil},
		{"uuid", id, "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"int32", int32(7), int64(7)},
		{"string", "x", "x"},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeValue(tt.in); got != tt.want {
				t.Errorf("normalizeValue(%v) = %v (%T), want %v", tt.in, got, got, tt.want)
			}
		})
	}
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		store := NewSnapshotStore(&fakeDB{rowErr: pgx.ErrNoRows}, "datatable_state")
		_, err := store.Load(ctx, "people")
		if !errors.Is(err, core.ErrSnapshotNotFound) {
			t.Errorf("Load() error = %v, want ErrSnapshotNotFound", err)
		}
	})

	t.Run("missing table reads as not found", func(t *testing.T) {
		store := NewSnapshotStore(&fakeDB{rowErr: &pgconn.PgError{Code: "42P01"}}, "datatable_state")
		_, err := store.Load(ctx, "people")
		if !errors.Is(err, core.ErrSnapshotNotFound) {
			t.Errorf("Load() error = %v, want ErrSnapshotNotFound", err)
		}
	})

	t.Run("other errors surface", func(t *testing.T) {
		store := NewSnapshotStore(&fakeDB{rowErr: errors.New("connection reset")}, "datatable_state")
		_, err := store.Load(ctx, "people")
		if err == nil || errors.Is(err, core.ErrSnapshotNotFound) {
			t.Errorf("Load() error = %v", err)
		}
	})

	t.Run("load decodes", func(t *testing.T) {
		db := &fakeDB{stateRaw: []byte(`{"page":2,"rowsPerPage":15,"searchText":"jo"}`)}
		snap, err := NewSnapshotStore(db, "datatable_state").Load(ctx, "people")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if snap.Page != 2 || snap.RowsPerPage != 15 || snap.SearchText != "jo" {
			t.Errorf("snapshot = %+v", snap)
		}
		if !strings.Contains(db.queries[0], `FROM "datatable_state" WHERE storage_key = $1`) {
			t.Errorf("query = %s", db.queries[0])
		}
	})

	t.Run("save upserts", func(t *testing.T) {
		db := &fakeDB{}
		err := NewSnapshotStore(db, "datatable_state").Save(ctx, "people", core.Snapshot{Page: 1})
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if !strings.Contains(db.queries[0], "ON CONFLICT (storage_key) DO UPDATE") {
			t.Errorf("query = %s", db.queries[0])
		}
		if db.args[0][0] != "people" || !strings.Contains(db.args[0][1].(string), `"page":1`) {
			t.Errorf("args = %v", db.args[0])
		}
	})

	t.Run("ensure table", func(t *testing.T) {
		db := &fakeDB{}
		if err := NewSnapshotStore(db, "app.state").EnsureTable(ctx); err != nil {
			t.Fatalf("EnsureTable() error = %v", err)
		}
		if !strings.Contains(db.queries[0], `CREATE TABLE IF NOT EXISTS "app"."state"`) {
			t.Errorf("query = %s", db.queries[0])
		}
	})
}
