package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Outcome values recorded in the command log.
const (
	OutcomeMatched = "matched"
	OutcomeTimeout = "timeout"
)

// Query limits for Recent.
const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// Entry is one terminal command outcome.
type Entry struct {
	// ID is the row identifier, assigned on insert.
	ID int64

	// RequestID is the command's correlation ID. Not unique across the
	// table: IDs restart at 1 each issuer session.
	RequestID uint64

	// Channel is the target channel name ("red", "green", "blue").
	Channel string

	// State is the desired output state the command carried.
	State bool

	// Outcome is OutcomeMatched or OutcomeTimeout.
	Outcome string

	// LatencyMs is the round-trip latency for matched outcomes; nil for
	// timeouts, where no round trip completed.
	LatencyMs *int64

	// CreatedAt is when the outcome was recorded.
	CreatedAt time.Time
}

// Repository persists command outcomes to the command_log table.
//
// Thread Safety: safe for concurrent use; the underlying sql.DB
// serialises access.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository over an open database connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// RecordOutcome inserts one terminal outcome.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entry: Outcome to persist (ID and CreatedAt are ignored on insert)
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *Repository) RecordOutcome(ctx context.Context, entry Entry) error {
	if entry.Outcome != OutcomeMatched && entry.Outcome != OutcomeTimeout {
		return fmt.Errorf("invalid outcome %q", entry.Outcome)
	}
	if entry.Channel == "" {
		return fmt.Errorf("channel is required")
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO command_log (request_id, channel, state, outcome, latency_ms) VALUES (?, ?, ?, ?, ?)",
		entry.RequestID,
		entry.Channel,
		entry.State,
		entry.Outcome,
		entry.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("inserting command outcome: %w", err)
	}
	return nil
}

// Recent returns the most recent outcomes, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Entry: Outcomes ordered by insertion, newest first
//   - error: nil on success, otherwise the underlying query error
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, request_id, channel, state, outcome, latency_ms, created_at
		 FROM command_log
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying command log: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.RequestID, &entry.Channel, &entry.State, &entry.Outcome, &entry.LatencyMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning command log row: %w", err)
		}
		// Timestamp format is controlled by the schema default.
		entry.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command log: %w", err)
	}
	return entries, nil
}
