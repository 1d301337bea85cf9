package storage

import (
	"context"
	"fmt"
)

// DataStats holds aggregate statistics about the mirrored history.
type DataStats struct {
	TotalRecords   int64          `json:"total_records"`
	TotalExercises int64          `json:"total_exercises"`
	TotalSets      int64          `json:"total_sets"`
	EarliestDate   *string        `json:"earliest_date"`
	LatestDate     *string        `json:"latest_date"`
	Exercises      []ExerciseStat `json:"exercises"`
}

// ExerciseStat summarises one exercise name across all records.
type ExerciseStat struct {
	Name      string  `json:"name"`
	Records   int64   `json:"records"`
	Sets      int64   `json:"sets"`
	MaxWeight float64 `json:"max_weight"`
}

// GetDataStats returns aggregate statistics for a user's stored records.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{Exercises: []ExerciseStat{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
		 to_char(MIN(record_date), 'YYYY-MM-DD'),
		 to_char(MAX(record_date), 'YYYY-MM-DD')
		 FROM training_records WHERE user_id = $1`, userID,
	).Scan(&stats.TotalRecords, &stats.EarliestDate, &stats.LatestDate)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT e.id), COUNT(s.id)
		 FROM training_records r
		 JOIN training_record_exercises e ON e.record_id = r.id
		 LEFT JOIN training_sets s ON s.record_exercise_id = e.id
		 WHERE r.user_id = $1`, userID,
	).Scan(&stats.TotalExercises, &stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting exercises and sets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT e.name, COUNT(DISTINCT r.id), COUNT(s.id), COALESCE(MAX(s.weight), 0)
		 FROM training_records r
		 JOIN training_record_exercises e ON e.record_id = r.id
		 LEFT JOIN training_sets s ON s.record_exercise_id = e.id
		 WHERE r.user_id = $1
		 GROUP BY e.name
		 ORDER BY COUNT(s.id) DESC, e.name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s ExerciseStat
		if err := rows.Scan(&s.Name, &s.Records, &s.Sets, &s.MaxWeight); err != nil {
			return nil, fmt.Errorf("scanning exercise stat: %w", err)
		}
		stats.Exercises = append(stats.Exercises, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
