package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sync run statuses.
const (
	SyncRunning = "running"
	SyncSuccess = "success"
	SyncError   = "error"
)

// SyncLog is the outcome of one mirror run against the backend.
type SyncLog struct {
	ID              int64     `json:"id"`
	UserID          int       `json:"user_id"`
	RunID           uuid.UUID `json:"run_id"`
	CreatedAt       time.Time `json:"created_at"`
	Status          string    `json:"status"`
	RecordsReceived int       `json:"records_received"`
	RecordsChanged  int       `json:"records_changed"`
	RecordsRemoved  int       `json:"records_removed"`
	SetsStored      int64     `json:"sets_stored"`
	NewPRs          int       `json:"new_prs"`
	DurationMs      *int      `json:"duration_ms"`
	ErrorMessage    *string   `json:"error_message"`
}

// InsertSyncLog creates a new sync log entry and returns its ID.
func (db *DB) InsertSyncLog(ctx context.Context, log SyncLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO sync_logs (user_id, run_id, status, records_received, records_changed,
		 records_removed, sets_stored, new_prs, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id`,
		log.UserID, log.RunID, log.Status, log.RecordsReceived, log.RecordsChanged,
		log.RecordsRemoved, log.SetsStored, log.NewPRs, log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting sync log: %w", err)
	}
	return id, nil
}

// UpdateSyncLog records the final state of a run.
func (db *DB) UpdateSyncLog(ctx context.Context, id int64, log SyncLog) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE sync_logs SET
		 status = $2, records_received = $3, records_changed = $4, records_removed = $5,
		 sets_stored = $6, new_prs = $7, duration_ms = $8, error_message = $9
		 WHERE id = $1`,
		id, log.Status, log.RecordsReceived, log.RecordsChanged, log.RecordsRemoved,
		log.SetsStored, log.NewPRs, log.DurationMs, log.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("updating sync log %d: %w", id, err)
	}
	return nil
}

// QuerySyncLogs returns the most recent sync logs for a user.
func (db *DB) QuerySyncLogs(ctx context.Context, userID, limit int) ([]SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, run_id, created_at, status, records_received, records_changed,
		 records_removed, sets_stored, new_prs, duration_ms, error_message
		 FROM sync_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync logs: %w", err)
	}
	defer rows.Close()

	result := []SyncLog{}
	for rows.Next() {
		var l SyncLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.RunID, &l.CreatedAt, &l.Status,
			&l.RecordsReceived, &l.RecordsChanged, &l.RecordsRemoved, &l.SetsStored,
			&l.NewPRs, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning sync log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
