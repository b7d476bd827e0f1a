package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageValue(t *testing.T) {
	tests := []struct {
		count, rowsPerPage, page int
		want                     int
	}{
		{30, 10, 5, 2},
		{3, 10, 1, 0},
		{10, 10, 1, 0},
		{4, 1, 3, 3},
		{4, 10, 5, 0},
		{0, 10, 3, 0},
		{25, 10, -1, 0},
		{25, 0, 2, 0},
		{25, 10, 2, 2},
	}
	for _, tt := range tests {
		got := PageValue(tt.count, tt.rowsPerPage, tt.page)
		if got != tt.want {
			t.Errorf("PageValue(%d, %d, %d) = %d, want %d", tt.count, tt.rowsPerPage, tt.page, got, tt.want)
		}
	}
}

func TestCompute_StageOrder(t *testing.T) {
	cols, err := NormalizeColumns(peopleColumns(), Options{})
	require.NoError(t, err)

	res := Compute(peopleData(), cols, nil, Query{
		Filters:     FilterState{"Company": {"Test Corp"}},
		SearchText:  "J",
		Sort:        SortSpec{Name: "Name", Direction: SortDesc},
		Page:        1,
		RowsPerPage: 2,
	})

	// "J" matches Joe James, John Walsh and James Houston.
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, []int{1, 0, 3}, res.Matched)
	assert.Equal(t, 1, res.Page)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 3, res.Rows[0].DataIndex)
}

func TestCompute_StableSort(t *testing.T) {
	cols, err := NormalizeColumns(Columns("key", "seq"), Options{})
	require.NoError(t, err)
	rows := []RowData{
		[]any{"b", 1},
		[]any{"a", 2},
		[]any{"b", 3},
		[]any{"a", 4},
	}

	asc := Compute(rows, cols, nil, Query{Sort: SortSpec{Name: "key", Direction: SortAsc}})
	assert.Equal(t, []int{1, 3, 0, 2}, asc.Matched)

	desc := Compute(rows, cols, nil, Query{Sort: SortSpec{Name: "key", Direction: SortDesc}, Order: asc.Matched})
	assert.Equal(t, []int{0, 2, 1, 3}, desc.Matched)
}

func TestCompute_PreservesDataIndex(t *testing.T) {
	cols, err := NormalizeColumns(peopleColumns(), Options{})
	require.NoError(t, err)
	data := peopleData()

	res := Compute(data, cols, nil, Query{Sort: SortSpec{Name: "City", Direction: SortAsc}})
	for _, r := range res.Rows {
		assert.Equal(t, data[r.DataIndex].([]any)[0], r.Data[0])
	}
}

func TestCompute_ServerSide(t *testing.T) {
	cols, err := NormalizeColumns(peopleColumns(), Options{})
	require.NoError(t, err)

	t.Run("count given", func(t *testing.T) {
		res := Compute(peopleData(), cols, nil, Query{
			ServerSide:  true,
			Count:       100,
			Filters:     FilterState{"Name": {"Joe James"}},
			SearchText:  "nothing matches this",
			Sort:        SortSpec{Name: "Name", Direction: SortAsc},
			Page:        3,
			RowsPerPage: 4,
		})
		assert.Equal(t, 100, res.Count)
		assert.Equal(t, 3, res.Page)
		assert.Len(t, res.Rows, 4)
		assert.Equal(t, 0, res.Rows[0].DataIndex)
	})

	t.Run("no count pages locally", func(t *testing.T) {
		res := Compute(peopleData(), cols, nil, Query{ServerSide: true, Page: 1, RowsPerPage: 3})
		assert.Equal(t, 4, res.Count)
		require.Len(t, res.Rows, 1)
		assert.Equal(t, 3, res.Rows[0].DataIndex)
	})
}

func TestCompute_Empty(t *testing.T) {
	cols, err := NormalizeColumns(peopleColumns(), Options{})
	require.NoError(t, err)

	res := Compute(nil, cols, nil, Query{Page: 4, RowsPerPage: 10})
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, 0, res.Page)
	assert.Empty(t, res.Rows)
}

func TestCompute_ZeroColumns(t *testing.T) {
	res := Compute(peopleData(), nil, nil, Query{RowsPerPage: 10})
	assert.Equal(t, 4, res.Count)
	assert.Empty(t, res.Rows[0].Data)
}
