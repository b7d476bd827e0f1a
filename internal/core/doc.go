// Package core is the table engine and the session service around it.
//
// The engine turns raw rows plus a configuration into a display projection.
// It has no I/O and no goroutines; callers serialize access per table.
//
// # Pipeline
//
// [Compute] runs a fixed sequence over the input rows:
//
//  1. Filter: every non-empty column entry of the [FilterState] must accept
//     the row's resolved value ([MatchesFilters]).
//  2. Search: any searchable, visible column contains the text ([MatchesSearch]).
//  3. Sort: stable, by the single active [SortSpec] ([Comparator]).
//  4. Page: the page is clamped with [PageValue] and sliced.
//
// In server-side mode the first three stages are skipped; the caller delivers
// matching rows and the total count.
//
// # Rows and indices
//
// A row's data index is its position in the input slice. Sorting, filtering
// and paging only change display order. Selection, expansion and callbacks
// always speak data indices.
//
// # Ledgers
//
// A [Ledger] holds selected or expanded rows with none, single or multiple
// cardinality. Shift-click ranges follow display order from the last anchor.
// Programmatic selections that break cardinality or name non-index values
// fail with [InvalidSelectionError].
//
// # Tables and sessions
//
// [Table] owns one instance's state and reports every mutation through
// [Hooks]. [Service] hosts tables for registered [Dataset]s as sessions,
// persists [Snapshot]s through a [SnapshotStore], and refetches pages from a
// [RowSource] for server-side datasets.
//
// # Export
//
// [CSVBuilder] quotes every field, doubles embedded quotes and prefixes
// formula-like strings with an apostrophe.
package core
