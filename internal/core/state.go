package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Snapshot is the persistable part of a table's state. It never carries the
// data, the display rows or the selection.
type Snapshot struct {
	Page        int                `json:"page"`
	RowsPerPage int                `json:"rowsPerPage"`
	FilterList  FilterState        `json:"filterList"`
	SearchText  string             `json:"searchText"`
	SortOrder   SortSpec           `json:"sortOrder"`
	Columns     []ColumnVisibility `json:"columns"`
}

// ColumnVisibility records whether a column was shown.
type ColumnVisibility struct {
	Name    string `json:"name"`
	Visible bool   `json:"display"`
}

// SnapshotStore persists snapshots under a caller-chosen key.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (*Snapshot, error)
	Save(ctx context.Context, key string, snap Snapshot) error
}

// Snapshot captures the persistable state.
func (t *Table) Snapshot() Snapshot {
	cols := make([]ColumnVisibility, len(t.columns))
	for i, c := range t.columns {
		cols[i] = ColumnVisibility{Name: c.Name, Visible: c.Visible}
	}
	return Snapshot{
		Page:        t.page,
		RowsPerPage: t.rowsPerPage,
		FilterList:  t.filters.Clone(),
		SearchText:  t.searchText,
		SortOrder:   t.sort,
		Columns:     cols,
	}
}

// Restore applies a snapshot and re-runs the pipeline. Entries naming columns
// the table does not have are dropped.
func (t *Table) Restore(snap Snapshot) {
	if snap.RowsPerPage > 0 {
		t.rowsPerPage = snap.RowsPerPage
	}

	t.filters = make(FilterState)
	for name, values := range snap.FilterList {
		if columnIndex(t.columns, name) < 0 {
			t.log.Debug("dropping restored filter on unknown column", "column", name)
			continue
		}
		t.filters.set(name, append([]any(nil), values...))
	}

	t.searchText = snap.SearchText
	if snap.SearchText != "" {
		t.searchOpen = true
	}

	for _, cv := range snap.Columns {
		if i := columnIndex(t.columns, cv.Name); i >= 0 {
			t.columns[i].Visible = cv.Visible
		}
	}

	spec := snap.SortOrder
	if spec.Active() && columnIndex(t.columns, spec.Name) < 0 {
		spec = SortSpec{}
	}
	t.page = snap.Page
	t.applySort(spec)
	t.changed(ActionRestore)
}

// EncodeSnapshot serializes a snapshot as JSON.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return b, nil
}

// DecodeSnapshot parses a snapshot. Display rows, data or selections present
// in older payloads are ignored.
func DecodeSnapshot(b []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// MemoryStore is an in-process SnapshotStore. It stores the encoded form so
// callers never share state with it.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (*Snapshot, error) {
	m.mu.RLock()
	b, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, key)
	}
	return DecodeSnapshot(b)
}

func (m *MemoryStore) Save(_ context.Context, key string, snap Snapshot) error {
	b, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = b
	m.mu.Unlock()
	return nil
}
