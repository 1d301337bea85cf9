package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fithub/records/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

var setColumns = []string{"record_exercise_id", "position", "backend_id", "set_number", "weight", "reps"}

// ReplaceRecords makes the user's stored history equal to records. The
// delete and all inserts run in one transaction. Returns the number of sets stored.
func (db *DB) ReplaceRecords(ctx context.Context, userID int, records []models.TrainingRecord) (int64, error) {
	dates, err := recordDates(records)
	if err != nil {
		return 0, err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM training_records WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("clearing records: %w", err)
	}

	var setRows [][]any
	for i, rec := range records {
		var recordID int64
		err := tx.QueryRow(ctx,
			`INSERT INTO training_records (user_id, backend_id, record_date)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			userID, rec.ID, dates[i],
		).Scan(&recordID)
		if err != nil {
			return 0, fmt.Errorf("inserting record %s: %w", rec.Date, err)
		}

		for pos, ex := range rec.Exercises {
			var exerciseID int64
			err := tx.QueryRow(ctx,
				`INSERT INTO training_record_exercises (record_id, position, backend_id, name, muscle, is_custom)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id`,
				recordID, pos, ex.ID, ex.Name, ex.Muscle, ex.Custom,
			).Scan(&exerciseID)
			if err != nil {
				return 0, fmt.Errorf("inserting exercise %q on %s: %w", ex.Name, rec.Date, err)
			}
			setRows = append(setRows, setValues(exerciseID, ex.Sets)...)
		}
	}

	var stored int64
	if len(setRows) > 0 {
		stored, err = tx.CopyFrom(ctx, pgx.Identifier{"training_sets"}, setColumns, pgx.CopyFromRows(setRows))
		if err != nil {
			return 0, fmt.Errorf("copying sets: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing records: %w", err)
	}
	return stored, nil
}

// recordDates parses every record date and rejects duplicates, which the
// per-user unique date would refuse anyway.
func recordDates(records []models.TrainingRecord) ([]time.Time, error) {
	dates := make([]time.Time, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		d, err := models.ParseDate(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.ID, err)
		}
		if seen[rec.Date] {
			return nil, fmt.Errorf("duplicate record date %s", rec.Date)
		}
		seen[rec.Date] = true
		dates[i] = d
	}
	return dates, nil
}

func setValues(exerciseID int64, sets []models.TrainingSet) [][]any {
	rows := make([][]any, len(sets))
	for i, s := range sets {
		rows[i] = []any{exerciseID, i, s.ID, s.SetNumber, s.WeightKg(), s.RepCount()}
	}
	return rows
}

// ListRecords returns the user's mirrored history, newest date first, with
// exercise and set order as received from the backend.
func (db *DB) ListRecords(ctx context.Context, userID int) ([]models.TrainingRecord, error) {
	return db.queryRecords(ctx, `r.user_id = $1`, userID)
}

// GetRecordByDate returns the record for date or ErrNotFound.
func (db *DB) GetRecordByDate(ctx context.Context, userID int, date string) (*models.TrainingRecord, error) {
	d, err := models.ParseDate(date)
	if err != nil {
		return nil, err
	}
	records, err := db.queryRecords(ctx, `r.user_id = $1 AND r.record_date = $2`, userID, d)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("record %s: %w", date, ErrNotFound)
	}
	return &records[0], nil
}

func (db *DB) queryRecords(ctx context.Context, where string, args ...any) ([]models.TrainingRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT r.id, r.backend_id, to_char(r.record_date, 'YYYY-MM-DD'),
		 e.id, e.backend_id, e.name, e.muscle, e.is_custom,
		 s.backend_id, s.set_number, s.weight, s.reps
		 FROM training_records r
		 LEFT JOIN training_record_exercises e ON e.record_id = r.id
		 LEFT JOIN training_sets s ON s.record_exercise_id = e.id
		 WHERE `+where+`
		 ORDER BY r.record_date DESC, e.position ASC, s.position ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var flat []recordRow
	for rows.Next() {
		var f recordRow
		if err := rows.Scan(&f.RecordKey, &f.RecordID, &f.Date,
			&f.ExerciseKey, &f.ExerciseID, &f.Name, &f.Muscle, &f.Custom,
			&f.SetID, &f.SetNumber, &f.Weight, &f.Reps); err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		flat = append(flat, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assembleRecords(flat), nil
}

// recordRow is one row of the records/exercises/sets outer join. Exercise
// and set columns are nil when the record or exercise has no children.
type recordRow struct {
	RecordKey int64
	RecordID  int64
	Date      string

	ExerciseKey *int64
	ExerciseID  *int64
	Name        *string
	Muscle      *string
	Custom      *bool

	SetID     *int64
	SetNumber *int
	Weight    *float64
	Reps      *int
}

// assembleRecords folds ordered join rows back into nested records.
func assembleRecords(rows []recordRow) []models.TrainingRecord {
	records := []models.TrainingRecord{}
	var lastRecord, lastExercise int64 = -1, -1

	for _, r := range rows {
		if r.RecordKey != lastRecord {
			records = append(records, models.TrainingRecord{
				ID:        r.RecordID,
				Date:      r.Date,
				Exercises: []models.TrainingRecordExercise{},
			})
			lastRecord = r.RecordKey
			lastExercise = -1
		}
		rec := &records[len(records)-1]

		if r.ExerciseKey == nil {
			continue
		}
		if *r.ExerciseKey != lastExercise {
			rec.Exercises = append(rec.Exercises, models.TrainingRecordExercise{
				ID:     deref(r.ExerciseID),
				Name:   deref(r.Name),
				Muscle: deref(r.Muscle),
				Custom: deref(r.Custom),
				Sets:   []models.TrainingSet{},
			})
			lastExercise = *r.ExerciseKey
		}
		ex := &rec.Exercises[len(rec.Exercises)-1]

		if r.SetID == nil {
			continue
		}
		ex.Sets = append(ex.Sets, models.TrainingSet{
			ID:        *r.SetID,
			SetNumber: deref(r.SetNumber),
			Weight:    models.Number(deref(r.Weight)),
			Reps:      models.Number(deref(r.Reps)),
		})
	}
	return records
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
