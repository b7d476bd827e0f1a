package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// RowSource serves rows for a server-side dataset. It applies the query's
// filters, search, sort and paging itself and returns the page plus the total
// number of matching rows.
type RowSource interface {
	Fetch(ctx context.Context, q Query, columns []Column) ([]RowData, int, error)
}

// Dataset is a named table definition: columns, options and either inline
// rows or a RowSource.
type Dataset struct {
	Key         string
	Group       string
	Title       string
	Description string

	Columns []ColumnDef
	Rows    []RowData
	Options Options

	// StorageKey, when set, persists the table's snapshot under this key.
	StorageKey string
	Source     RowSource
}

// DatasetInfo is the listing view of a dataset.
type DatasetInfo struct {
	Key         string `json:"key"`
	Group       string `json:"group"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Columns     int    `json:"columns"`
	Rows        int    `json:"rows"`
	ServerSide  bool   `json:"serverSide"`
}

// Info summarizes the dataset.
func (d Dataset) Info() DatasetInfo {
	title := d.Title
	if title == "" {
		title = d.Key
	}
	return DatasetInfo{
		Key:         d.Key,
		Group:       d.Group,
		Title:       title,
		Description: d.Description,
		Columns:     len(d.Columns),
		Rows:        len(d.Rows),
		ServerSide:  d.Source != nil,
	}
}

var (
	registry   = make(map[string]Dataset)
	registryMu sync.RWMutex
)

// Register adds a dataset to the registry.
func Register(ds Dataset) error {
	if ds.Key == "" {
		return fmt.Errorf("register dataset: empty key")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[ds.Key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDataset, ds.Key)
	}
	registry[ds.Key] = ds
	return nil
}

// Get returns a dataset by key.
func Get(key string) (Dataset, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ds, ok := registry[key]
	return ds, ok
}

// All returns every registered dataset, sorted by group then key.
func All() []Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Dataset, 0, len(registry))
	for _, ds := range registry {
		result = append(result, ds)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// ByGroup returns the datasets of one group, sorted by key.
func ByGroup(group string) []Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []Dataset
	for _, ds := range registry {
		if ds.Group == group {
			result = append(result, ds)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns the distinct group names, sorted.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	var groups []string
	for _, ds := range registry {
		if !seen[ds.Group] {
			seen[ds.Group] = true
			groups = append(groups, ds.Group)
		}
	}
	sort.Strings(groups)
	return groups
}

// DatasetCount returns the number of registered datasets.
func DatasetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes every dataset. Used by tests.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Dataset)
}
