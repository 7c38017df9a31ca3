package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"HedgePool/internal/pool"
)

// SnapshotStore persists pool snapshots for warm restarts. On startup the
// orchestrator loads the latest snapshot and restores the pool from it;
// the event log serves audits and gap detection, not replay.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Save persists a snapshot. Saving the same sequence twice overwrites,
// so a retried snapshot pass is harmless.
func (s *SnapshotStore) Save(ctx context.Context, snap *pool.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	stateHash := make([]byte, 32)
	copy(stateHash, snap.StateHash[:])

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hedge_log.snapshots
			(snapshot_id, sequence, data, state_hash, format_version, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sequence) DO UPDATE SET data = $3, state_hash = $4, size_bytes = $6
	`, uuid.New(), snap.Sequence, data, stateHash, int32(1), len(data), time.Now().UTC())

	return err
}

// LoadLatest returns the most recent snapshot, or (nil, nil) on a cold start.
func (s *SnapshotStore) LoadLatest(ctx context.Context) (*pool.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT data FROM hedge_log.snapshots
		ORDER BY sequence DESC
		LIMIT 1
	`)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snap pool.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
