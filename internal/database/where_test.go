package database

import (
	"testing"
)

// ============================================================================
// WhereBuilder Tests
// ============================================================================

func TestNewWhereBuilder(t *testing.T) {
	wb := NewWhereBuilder()

	if wb.argIndex != 1 {
		t.Errorf("expected argIndex to be 1, got %d", wb.argIndex)
	}
	if len(wb.conditions) != 0 || len(wb.args) != 0 {
		t.Errorf("expected empty builder, got %v / %v", wb.conditions, wb.args)
	}
}

func TestWhereBuilder_Build_Empty(t *testing.T) {
	whereClause, args := NewWhereBuilder().Build()

	if whereClause != "" {
		t.Errorf("expected empty string for no conditions, got %q", whereClause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
}

func TestWhereBuilder_Add(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("status", "active")
	wb.Add("skipped", "")
	wb.Add("type", "user")

	whereClause, args := wb.Build()

	expected := ` WHERE "status" = $1 AND "type" = $2`
	if whereClause != expected {
		t.Errorf("expected %q, got %q", expected, whereClause)
	}
	if len(args) != 2 || args[0] != "active" || args[1] != "user" {
		t.Errorf("expected args [active user], got %v", args)
	}
}

func TestWhereBuilder_AddIn(t *testing.T) {
	tests := []struct {
		name       string
		values     []interface{}
		wantClause string
		wantArgs   []interface{}
	}{
		{
			name:       "no values skipped",
			values:     nil,
			wantClause: "",
		},
		{
			name:       "values compared as text",
			values:     []interface{}{"NY", 42},
			wantClause: ` WHERE "state"::text IN ($1, $2)`,
			wantArgs:   []interface{}{"NY", "42"},
		},
		{
			name:       "nil only",
			values:     []interface{}{nil},
			wantClause: ` WHERE "state" IS NULL`,
		},
		{
			name:       "nil mixed with values",
			values:     []interface{}{"NY", nil},
			wantClause: ` WHERE ("state" IS NULL OR "state"::text IN ($1))`,
			wantArgs:   []interface{}{"NY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddIn("state", tt.values)
			gotClause, gotArgs := wb.Build()

			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if len(gotArgs) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", gotArgs, tt.wantArgs)
			}
			for i, want := range tt.wantArgs {
				if gotArgs[i] != want {
					t.Errorf("args[%d] = %v, want %v", i, gotArgs[i], want)
				}
			}
		})
	}
}

func TestWhereBuilder_AddContains(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		caseSensitive bool
		wantClause    string
		wantArg       string
	}{
		{"empty skipped", "", false, "", ""},
		{"case insensitive", "york", false, ` WHERE "city"::text ILIKE $1`, "%york%"},
		{"case sensitive", "York", true, ` WHERE "city"::text LIKE $1`, "%York%"},
		{"wildcards escaped", "50%_off", false, ` WHERE "city"::text ILIKE $1`, `%50\%\_off%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddContains("city", tt.text, tt.caseSensitive)
			gotClause, gotArgs := wb.Build()

			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if tt.wantArg != "" && (len(gotArgs) != 1 || gotArgs[0] != tt.wantArg) {
				t.Errorf("args = %v, want [%s]", gotArgs, tt.wantArg)
			}
		})
	}
}

func TestWhereBuilder_AddSearch(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		columns       []string
		wantClause    string
		wantArgsCount int
	}{
		{
			name:       "empty query skipped",
			text:       "",
			columns:    []string{"name"},
			wantClause: "",
		},
		{
			name:       "no columns skipped",
			text:       "joe",
			wantClause: "",
		},
		{
			name:          "single column",
			text:          "joe",
			columns:       []string{"name"},
			wantClause:    ` WHERE ("name"::text ILIKE $1)`,
			wantArgsCount: 1,
		},
		{
			name:          "columns share one placeholder",
			text:          "joe",
			columns:       []string{"name", "city"},
			wantClause:    ` WHERE ("name"::text ILIKE $1 OR "city"::text ILIKE $1)`,
			wantArgsCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddSearch(tt.text, tt.columns, false)
			gotClause, gotArgs := wb.Build()

			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if len(gotArgs) != tt.wantArgsCount {
				t.Errorf("args count = %d, want %d", len(gotArgs), tt.wantArgsCount)
			}
			if tt.wantArgsCount > 0 && gotArgs[0] != "%"+tt.text+"%" {
				t.Errorf("search arg = %q, want %q", gotArgs[0], "%"+tt.text+"%")
			}
		})
	}
}

func TestWhereBuilder_NextArgIndex(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("a", 1)
	wb.AddIn("b", []interface{}{"x", nil, "y"})
	wb.AddSearch("q", []string{"c", "d"}, false)

	if got := wb.NextArgIndex(); got != 5 {
		t.Errorf("NextArgIndex() = %d, want 5", got)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"name", `"name"`},
		{`we"ird`, `"we""ird"`},
	}
	for _, tt := range tests {
		if got := quoteIdentifier(tt.in); got != tt.want {
			t.Errorf("quoteIdentifier(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if got := quoteTable("public.orders"); got != `"public"."orders"` {
		t.Errorf("quoteTable = %s", got)
	}
}
