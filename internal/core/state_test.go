package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	tbl := newPeopleTable(t, Options{})
	require.NoError(t, tbl.UpdateFilter("State", FilterMultiselect, "NY", "TX"))
	require.NoError(t, tbl.ToggleSort("Name"))
	require.NoError(t, tbl.ToggleColumn("Company"))
	require.NoError(t, tbl.ChangeRowsPerPage(1))
	tbl.ChangePage(1)
	require.NoError(t, tbl.SelectRow(0, false))

	b, err := EncodeSnapshot(tbl.Snapshot())
	require.NoError(t, err)
	assert.NotContains(t, string(b), "displayData")
	assert.NotContains(t, string(b), "selectedRows")

	snap, err := DecodeSnapshot(b)
	require.NoError(t, err)

	restored := newPeopleTable(t, Options{})
	restored.Restore(*snap)

	want, got := tbl.State(), restored.State()
	assert.Equal(t, want.Filters, got.Filters)
	assert.Equal(t, want.Sort, got.Sort)
	assert.Equal(t, want.Page, got.Page)
	assert.Equal(t, want.RowsPerPage, got.RowsPerPage)
	assert.Equal(t, want.Columns, got.Columns)
	assert.Equal(t, want.DisplayRows, got.DisplayRows)
	assert.Empty(t, got.Selected)
	assert.Equal(t, "Joe James", got.DisplayRows[0].Data[0])
}

func TestRestore_DropsUnknownColumns(t *testing.T) {
	tbl := newPeopleTable(t, Options{})
	tbl.Restore(Snapshot{
		FilterList: FilterState{"Ghost": {"x"}, "State": {"FL"}},
		SortOrder:  SortSpec{Name: "Ghost", Direction: SortAsc},
		Columns:    []ColumnVisibility{{Name: "Ghost", Visible: false}},
	})

	assert.Equal(t, FilterState{"State": {"FL"}}, tbl.Filters())
	assert.False(t, tbl.Sort().Active())
	assert.Equal(t, 1, tbl.Count())
}

func TestRestore_FiresHook(t *testing.T) {
	var actions []Action
	tbl := newPeopleTable(t, Options{Hooks: Hooks{
		OnTableChange: func(a Action, _ State) { actions = append(actions, a) },
	}})
	tbl.Restore(Snapshot{SearchText: "Joe"})

	assert.Contains(t, actions, ActionRestore)
	assert.True(t, tbl.State().SearchOpen)
}

func TestDecodeSnapshot_IgnoresExtraFields(t *testing.T) {
	payload := `{"page":2,"rowsPerPage":5,"searchText":"x","displayData":[{"data":["a"]}],"data":[["a"]],"selectedRows":[1]}`
	snap, err := DecodeSnapshot([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, 5, snap.RowsPerPage)
	assert.Equal(t, "x", snap.SearchText)

	_, err = DecodeSnapshot([]byte("{"))
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, store.Save(ctx, "k", Snapshot{Page: 3}))
	snap, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Page)
}
