package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"HedgePool/internal/event"
)

// EventLogWriter writes pool events to Postgres using multi-row INSERT.
// Switch to pgx CopyFrom if the event rate ever makes this the bottleneck.
type EventLogWriter struct {
	db *sql.DB
}

// EventRow represents a row in hedge_log.events.
type EventRow struct {
	Sequence  int64
	EventType string
	Block     int64
	Payload   []byte // JSON-encoded event payload
	StateHash []byte
	PrevHash  []byte
	Timestamp time.Time
}

// RowFromEnvelope converts an emitted envelope into its storage row.
func RowFromEnvelope(env *event.Envelope) (EventRow, error) {
	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return EventRow{}, fmt.Errorf("marshal payload for seq %d: %w", env.Sequence, err)
	}
	stateHash := make([]byte, 32)
	prevHash := make([]byte, 32)
	copy(stateHash, env.StateHash[:])
	copy(prevHash, env.PrevHash[:])
	return EventRow{
		Sequence:  env.Sequence,
		EventType: env.EventType.String(),
		Block:     int64(env.Block),
		Payload:   payload,
		StateHash: stateHash,
		PrevHash:  prevHash,
		Timestamp: env.Timestamp,
	}, nil
}

func NewEventLogWriter(db *sql.DB) *EventLogWriter {
	return &EventLogWriter{db: db}
}

// WriteEventBatch writes a batch of events inside the given transaction.
// ON CONFLICT DO NOTHING makes re-delivery after a crash-and-replay harmless.
func (w *EventLogWriter) WriteEventBatch(ctx context.Context, tx *sql.Tx, events []EventRow) error {
	if len(events) == 0 {
		return nil
	}

	query := `INSERT INTO hedge_log.events
		(sequence, event_type, block, payload, state_hash, prev_hash, timestamp)
		VALUES `

	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*7)

	for i, e := range events {
		base := i * 7
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args,
			e.Sequence, e.EventType, e.Block,
			e.Payload, e.StateHash, e.PrevHash, e.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (sequence) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// LoadEventsFrom loads events starting at fromSequence, for audits and
// inspecting the gap between a snapshot and the log head.
func (w *EventLogWriter) LoadEventsFrom(ctx context.Context, fromSequence int64, limit int) ([]EventRow, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT sequence, event_type, block, payload, state_hash, prev_hash, timestamp
		FROM hedge_log.events
		WHERE sequence >= $1
		ORDER BY sequence ASC
		LIMIT $2
	`, fromSequence, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		if err := rows.Scan(
			&e.Sequence, &e.EventType, &e.Block,
			&e.Payload, &e.StateHash, &e.PrevHash, &e.Timestamp,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LatestSequence returns the highest sequence in the event log, or -1 when empty.
func (w *EventLogWriter) LatestSequence(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := w.db.QueryRowContext(ctx, `SELECT MAX(sequence) FROM hedge_log.events`).Scan(&seq)
	if err != nil {
		return 0, err
	}
	if !seq.Valid {
		return -1, nil
	}
	return seq.Int64, nil
}
