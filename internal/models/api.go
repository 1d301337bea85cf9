package models

import "fmt"

// Exercise is an entry of the backend's exercise catalog.
type Exercise struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Muscle string `json:"muscle"`
	Custom bool   `json:"isCustom"`
}

// PagedRecords is the backend's paged record listing.
type PagedRecords struct {
	Content       []TrainingRecord `json:"content"`
	Page          int              `json:"page"`
	Size          int              `json:"size"`
	TotalElements int64            `json:"totalElements"`
	TotalPages    int              `json:"totalPages"`
	HasNext       bool             `json:"hasNext"`
	HasPrevious   bool             `json:"hasPrevious"`
}

// SaveRecordRequest appends sets to the record for Date, creating it if needed.
type SaveRecordRequest struct {
	Date      string         `json:"date"`
	Exercises []SaveExercise `json:"exercises"`
}

type SaveExercise struct {
	ExerciseID int64     `json:"exerciseId"`
	Sets       []SaveSet `json:"sets"`
}

type SaveSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// Validate checks the date and every set against the data-entry bounds.
func (r SaveRecordRequest) Validate() error {
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}
	if len(r.Exercises) == 0 {
		return fmt.Errorf("no exercises to save")
	}
	for _, ex := range r.Exercises {
		for i, s := range ex.Sets {
			if err := ValidateSet(s.Weight, s.Reps); err != nil {
				return fmt.Errorf("exercise %d set %d: %w", ex.ExerciseID, i+1, err)
			}
		}
	}
	return nil
}

// SaveRecordResponse carries the backend's progression figures for a save.
// They are computed server-side and only displayed here.
type SaveRecordResponse struct {
	ID            int64    `json:"id"`
	Date          string   `json:"date"`
	ExpGained     *int     `json:"expGained,omitempty"`
	NewLevel      *int     `json:"newLevel,omitempty"`
	TotalExp      *int64   `json:"totalExp,omitempty"`
	CurrentLevel  *int     `json:"currentLevel,omitempty"`
	LevelProgress *float64 `json:"levelProgress,omitempty"`
}
