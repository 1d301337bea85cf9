package storage

import (
	"context"
	"fmt"

	"github.com/fithub/records/internal/models"
)

// GetOrCreateUser finds or creates a user by login name and returns its ID.
// An empty displayName keeps the stored one.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting user %q: %w", login, err)
	}
	return id, nil
}

// UserRecords binds a DB to one user so it can serve as a record loader.
type UserRecords struct {
	db     *DB
	userID int
}

// ForUser returns a loader over userID's mirrored history.
func (db *DB) ForUser(userID int) *UserRecords {
	return &UserRecords{db: db, userID: userID}
}

// LoadRecords returns the user's full mirrored history.
func (u *UserRecords) LoadRecords(ctx context.Context) ([]models.TrainingRecord, error) {
	return u.db.ListRecords(ctx, u.userID)
}
