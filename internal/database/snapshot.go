package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/datatable/internal/core"
)

// undefinedTable is the Postgres error code for a missing relation.
const undefinedTable = "42P01"

// SnapshotStore persists table snapshots as jsonb rows keyed by storage key.
type SnapshotStore struct {
	db    DBTX
	table string
}

// NewSnapshotStore creates a store over table. Call EnsureTable once at
// startup.
func NewSnapshotStore(db DBTX, table string) *SnapshotStore {
	return &SnapshotStore{db: db, table: table}
}

// EnsureTable creates the snapshot table if it does not exist.
func (s *SnapshotStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	storage_key TEXT PRIMARY KEY,
	state       JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`, quoteTable(s.table)))
	if err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// Load returns the stored snapshot, or core.ErrSnapshotNotFound.
func (s *SnapshotStore) Load(ctx context.Context, key string) (*core.Snapshot, error) {
	var raw []byte
	err := s.db.QueryRow(ctx,
		fmt.Sprintf("SELECT state FROM %s WHERE storage_key = $1", quoteTable(s.table)),
		key,
	).Scan(&raw)

	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, key)
	case errors.As(err, &pgErr) && pgErr.Code == undefinedTable:
		return nil, fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, key)
	case err != nil:
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	return core.DecodeSnapshot(raw)
}

// Save upserts the snapshot.
func (s *SnapshotStore) Save(ctx context.Context, key string, snap core.Snapshot) error {
	b, err := core.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (storage_key, state, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (storage_key) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
			quoteTable(s.table)),
		key, string(b),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}
