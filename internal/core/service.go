package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ServiceConfig tunes session handling.
type ServiceConfig struct {
	// Defaults sits between the framework defaults and each dataset's options.
	Defaults    Options
	SessionTTL  time.Duration
	MaxSessions int

	// MaxConcurrentFetches and FetchWait bound server-side page fetches.
	MaxConcurrentFetches int
	FetchWait            time.Duration
}

// Service hosts table sessions over the registered datasets. Each session owns
// one Table; requests against a session are serialized by its mutex.
type Service struct {
	store   SnapshotStore
	cfg     ServiceConfig
	fetches *FetchLimiter

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Session is one open table.
type Session struct {
	ID         string
	DatasetKey string

	storageKey string
	source     RowSource

	mu       sync.Mutex
	table    *Table
	lastUsed time.Time
}

// NewService creates a Service. A nil store keeps snapshots in memory.
func NewService(store SnapshotStore, cfg ServiceConfig) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{
		store:    store,
		cfg:      cfg,
		fetches:  NewFetchLimiter(cfg.MaxConcurrentFetches, cfg.FetchWait),
		sessions: make(map[string]*Session),
	}
}

// ListDatasets returns every registered dataset.
func (s *Service) ListDatasets() []DatasetInfo {
	all := All()
	infos := make([]DatasetInfo, len(all))
	for i, ds := range all {
		infos[i] = ds.Info()
	}
	return infos
}

// ListDatasetsByGroup returns datasets organized by group.
func (s *Service) ListDatasetsByGroup() map[string][]DatasetInfo {
	result := make(map[string][]DatasetInfo)
	for _, group := range Groups() {
		for _, ds := range ByGroup(group) {
			result[group] = append(result[group], ds.Info())
		}
	}
	return result
}

// OpenSession builds a table for a dataset and restores its stored snapshot.
// Server-side datasets fetch their first page before the restore and again
// if the restored query differs.
func (s *Service) OpenSession(ctx context.Context, datasetKey string) (*Session, State, error) {
	ds, ok := Get(datasetKey)
	if !ok {
		return nil, State{}, fmt.Errorf("%w: %s", ErrUnknownDataset, datasetKey)
	}

	s.mu.RLock()
	full := s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions
	s.mu.RUnlock()
	if full {
		return nil, State{}, ErrTooManySessions
	}

	id := uuid.NewString()
	opts := mergeOptions(s.cfg.Defaults, ds.Options)
	opts.TableID = id
	opts.Logger = slog.Default().With("session_id", id, "dataset", ds.Key)
	if ds.Source != nil {
		opts.ServerSide = true
	}

	t, err := New(ds.Columns, ds.Rows, opts)
	if err != nil {
		return nil, State{}, fmt.Errorf("open %s: %w", ds.Key, err)
	}

	sess := &Session{
		ID:         id,
		DatasetKey: ds.Key,
		storageKey: ds.StorageKey,
		source:     ds.Source,
		table:      t,
		lastUsed:   time.Now(),
	}

	if sess.source != nil {
		if err := s.fetch(ctx, sess); err != nil {
			return nil, State{}, err
		}
	}

	if sess.storageKey != "" {
		before := t.Query()
		snap, err := s.store.Load(ctx, sess.storageKey)
		switch {
		case err == nil:
			t.Restore(*snap)
		case errors.Is(err, ErrSnapshotNotFound):
		default:
			slog.Warn("ignoring unreadable table snapshot",
				"dataset", ds.Key,
				"storage_key", sess.storageKey,
				"error", err,
			)
		}
		if sess.source != nil && !sameQuery(before, t.Query()) {
			if err := s.fetch(ctx, sess); err != nil {
				return nil, State{}, err
			}
		}
	}

	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return nil, State{}, ErrTooManySessions
	}
	s.sessions[id] = sess
	s.mu.Unlock()

	slog.Info("session opened", "session_id", id, "dataset", ds.Key, "rows", t.Len())
	return sess, t.State(), nil
}

// Session returns an open session.
func (s *Service) Session(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// CloseSession drops a session. It reports whether one existed.
func (s *Service) CloseSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Do runs a mutation against a session's table. Server-side sessions refetch
// their page when the query changed, and the snapshot is saved afterwards.
func (s *Service) Do(ctx context.Context, id string, fn func(t *Table) error) (State, error) {
	sess, err := s.Session(id)
	if err != nil {
		return State{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = time.Now()

	before := sess.table.Query()
	if err := fn(sess.table); err != nil {
		return State{}, err
	}
	if sess.source != nil && !sameQuery(before, sess.table.Query()) {
		if err := s.fetch(ctx, sess); err != nil {
			return State{}, err
		}
	}

	if sess.storageKey != "" {
		if err := s.store.Save(ctx, sess.storageKey, sess.table.Snapshot()); err != nil {
			slog.Warn("failed to save table snapshot",
				"session_id", id,
				"storage_key", sess.storageKey,
				"error", err,
			)
		}
	}
	return sess.table.State(), nil
}

// View runs a read-only function against a session's table.
func (s *Service) View(id string, fn func(t *Table) error) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastUsed = time.Now()
	return fn(sess.table)
}

// fetch loads the session's current page from its row source.
func (s *Service) fetch(ctx context.Context, sess *Session) error {
	if err := s.fetches.Acquire(ctx); err != nil {
		return fmt.Errorf("fetch %s: %w", sess.DatasetKey, err)
	}
	defer s.fetches.Release()

	t := sess.table
	rows, total, err := sess.source.Fetch(ctx, t.Query(), t.Columns())
	if err != nil {
		return fmt.Errorf("fetch %s: %w", sess.DatasetKey, err)
	}
	t.SetServerData(rows, total)
	return nil
}

// FetchStatus reports the server-side fetch limiter.
func (s *Service) FetchStatus() FetchLimiterStatus {
	return s.fetches.Status()
}

// WaitForFetches blocks until no server-side fetch is in flight or ctx is done.
func (s *Service) WaitForFetches(ctx context.Context) error {
	return s.fetches.WaitForDrain(ctx)
}

// sweep closes sessions idle for longer than the TTL.
func (s *Service) sweep(now time.Time) int {
	if s.cfg.SessionTTL <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	closed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.lastUsed)
		sess.mu.Unlock()
		if idle > s.cfg.SessionTTL {
			delete(s.sessions, id)
			closed++
		}
	}
	return closed
}

func sameQuery(a, b Query) bool {
	return a.SearchText == b.SearchText &&
		a.Sort == b.Sort &&
		a.Page == b.Page &&
		a.RowsPerPage == b.RowsPerPage &&
		reflect.DeepEqual(a.Filters.Clone(), b.Filters.Clone())
}

// mergeOptions lays over on top of base. Zero fields in over inherit.
func mergeOptions(base, over Options) Options {
	out := base
	if over.FilterType != "" {
		out.FilterType = over.FilterType
	}
	if over.SortOrder.Active() {
		out.SortOrder = over.SortOrder
	}
	if over.Page > 0 {
		out.Page = over.Page
	}
	if over.RowsPerPage > 0 {
		out.RowsPerPage = over.RowsPerPage
	}
	if over.RowsPerPageOptions != nil {
		out.RowsPerPageOptions = over.RowsPerPageOptions
	}
	out.ServerSide = base.ServerSide || over.ServerSide
	if over.Count > 0 {
		out.Count = over.Count
	}
	if over.SelectableRows != "" {
		out.SelectableRows = over.SelectableRows
	}
	if over.SelectToolbarPlacement != "" {
		out.SelectToolbarPlacement = over.SelectToolbarPlacement
	}
	out.SelectVisibleOnly = base.SelectVisibleOnly || over.SelectVisibleOnly
	if over.RowsSelected != nil {
		out.RowsSelected = over.RowsSelected
	}
	if over.IsRowSelectable != nil {
		out.IsRowSelectable = over.IsRowSelectable
	}
	out.ExpandableRows = base.ExpandableRows || over.ExpandableRows
	if over.RowsExpanded != nil {
		out.RowsExpanded = over.RowsExpanded
	}
	if over.IsRowExpandable != nil {
		out.IsRowExpandable = over.IsRowExpandable
	}
	if over.NestedDataDelimiter != "" {
		out.NestedDataDelimiter = over.NestedDataDelimiter
	}
	if over.SearchText != "" {
		out.SearchText = over.SearchText
	}
	out.SearchOpen = base.SearchOpen || over.SearchOpen
	out.SearchAlwaysOpen = base.SearchAlwaysOpen || over.SearchAlwaysOpen
	out.CaseSensitive = base.CaseSensitive || over.CaseSensitive
	if over.CustomSearch != nil {
		out.CustomSearch = over.CustomSearch
	}
	out.SortThirdClickReset = base.SortThirdClickReset || over.SortThirdClickReset
	if over.DownloadOptions.Filename != "" {
		out.DownloadOptions.Filename = over.DownloadOptions.Filename
	}
	if over.DownloadOptions.Separator != "" {
		out.DownloadOptions.Separator = over.DownloadOptions.Separator
	}
	if over.DownloadOptions.FilterOptions != (DownloadFilterOptions{}) {
		out.DownloadOptions.FilterOptions = over.DownloadOptions.FilterOptions
	}
	if over.Locale != "" {
		out.Locale = over.Locale
	}
	out.Hooks = over.Hooks
	if over.Logger != nil {
		out.Logger = over.Logger
	}
	return out
}
