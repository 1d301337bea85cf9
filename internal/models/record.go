package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the calendar date format used by the backend for record dates.
const DateLayout = "2006-01-02"

// Soft bounds enforced when a set is entered. The PR calculator ignores them.
const (
	MinWeightKg = 0
	MaxWeightKg = 500
	MinReps     = 0
	MaxReps     = 20
)

var (
	ErrWeightOutOfRange = errors.New("weight must be between 0 and 500 kg")
	ErrRepsOutOfRange   = errors.New("reps must be a whole number between 0 and 20")
	ErrInvalidDate      = errors.New("date must be formatted as YYYY-MM-DD")
)

// TrainingRecord is one calendar day's workout session. Date is unique per user.
type TrainingRecord struct {
	ID        int64                    `json:"id"`
	Date      string                   `json:"date"`
	Exercises []TrainingRecordExercise `json:"exercises"`
}

// TrainingRecordExercise is one exercise performed within a record.
// Name, not ID, is what personal records are grouped by.
type TrainingRecordExercise struct {
	ID     int64         `json:"id"`
	Name   string        `json:"name"`
	Muscle string        `json:"muscle"`
	Custom bool          `json:"isCustom"`
	Sets   []TrainingSet `json:"sets"`
}

// TrainingSet is a single set. Weight is kilograms.
type TrainingSet struct {
	ID        int64  `json:"id"`
	SetNumber int    `json:"setNumber"`
	Weight    Number `json:"weight"`
	Reps      Number `json:"reps"`
}

// WeightKg returns the set weight.
func (s TrainingSet) WeightKg() float64 {
	return s.Weight.Float()
}

// RepCount returns the rep count as an integer.
func (s TrainingSet) RepCount() int {
	return s.Reps.Int()
}

// SetCount returns the total number of sets across all exercises.
func (r TrainingRecord) SetCount() int {
	n := 0
	for _, ex := range r.Exercises {
		n += len(ex.Sets)
	}
	return n
}

// ParseDate validates an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ValidateSet checks a set against the data-entry bounds.
func ValidateSet(weight float64, reps int) error {
	if math.IsNaN(weight) || weight < MinWeightKg || weight > MaxWeightKg {
		return fmt.Errorf("%w (got %g)", ErrWeightOutOfRange, weight)
	}
	if reps < MinReps || reps > MaxReps {
		return fmt.Errorf("%w (got %d)", ErrRepsOutOfRange, reps)
	}
	return nil
}
