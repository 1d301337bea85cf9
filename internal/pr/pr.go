// Package pr derives personal records from a training history.
//
// Everything here is pure: inputs are never mutated and results are rebuilt
// from scratch on every call.
package pr

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/fithub/records/internal/models"
)

// Key identifies one set: the record date, the exercise name and the set's
// position within that exercise on that date.
type Key struct {
	Date     string
	Exercise string
	SetIndex int
}

// NewKey builds the key for a set.
func NewKey(date, exercise string, setIndex int) Key {
	return Key{Date: date, Exercise: exercise, SetIndex: setIndex}
}

// String renders the key as "{date}_{exercise}_{setIndex}".
// It is a display form only; use Key itself for lookups.
func (k Key) String() string {
	return k.Date + "_" + k.Exercise + "_" + strconv.Itoa(k.SetIndex)
}

// Info describes a set that was a record when it happened, and whether it
// still is after the whole history has been replayed.
type Info struct {
	MaxWeightPR    bool    `json:"maxWeightPR"`
	RepPR          bool    `json:"repPR"`
	IsCurrentMaxPR bool    `json:"isCurrentMaxPR"`
	IsCurrentRepPR bool    `json:"isCurrentRepPR"`
	Date           string  `json:"date"`
	Exercise       string  `json:"exercise"`
	Weight         float64 `json:"weight"`
	Reps           int     `json:"reps"`
	SetIndex       int     `json:"setIndex"`
}

// Key returns the key this entry is stored under.
func (i Info) Key() Key {
	return NewKey(i.Date, i.Exercise, i.SetIndex)
}

// IsCurrent reports whether the entry is still unbeaten in either category.
func (i Info) IsCurrent() bool {
	return i.IsCurrentMaxPR || i.IsCurrentRepPR
}

// Result is the output of Calculate. The maxima reflect the final all-time
// bests per exercise name.
type Result struct {
	PRs                map[Key]Info
	MaxWeight          map[string]float64
	MaxRepsAtMaxWeight map[string]int
}

// Calculate replays records in date order and tags every set that raised
// the exercise's max weight, or its reps at the current max weight.
//
// Only strictly greater values count: a later set that ties the current best
// produces no entry. Exercises are grouped by exact name.
func Calculate(records []models.TrainingRecord) *Result {
	sorted := make([]models.TrainingRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date < sorted[j].Date
	})

	res := &Result{
		PRs:                make(map[Key]Info),
		MaxWeight:          make(map[string]float64),
		MaxRepsAtMaxWeight: make(map[string]int),
	}

	for _, rec := range sorted {
		for _, ex := range rec.Exercises {
			for idx, set := range ex.Sets {
				weight := set.WeightKg()
				reps := set.RepCount()
				key := NewKey(rec.Date, ex.Name, idx)

				switch {
				case weight > res.MaxWeight[ex.Name]:
					// A new top weight voids the rep history at the old one.
					res.MaxWeight[ex.Name] = weight
					res.MaxRepsAtMaxWeight[ex.Name] = reps
					res.PRs[key] = Info{
						MaxWeightPR: true,
						RepPR:       true,
						Date:        rec.Date,
						Exercise:    ex.Name,
						Weight:      weight,
						Reps:        reps,
						SetIndex:    idx,
					}
				case weight == res.MaxWeight[ex.Name] && reps > res.MaxRepsAtMaxWeight[ex.Name]:
					res.MaxRepsAtMaxWeight[ex.Name] = reps
					res.PRs[key] = Info{
						RepPR:    true,
						Date:     rec.Date,
						Exercise: ex.Name,
						Weight:   weight,
						Reps:     reps,
						SetIndex: idx,
					}
				}
			}
		}
	}

	for key, info := range res.PRs {
		maxWeight := res.MaxWeight[info.Exercise]
		info.IsCurrentMaxPR = info.Weight == maxWeight
		info.IsCurrentRepPR = info.Weight == maxWeight && info.Reps == res.MaxRepsAtMaxWeight[info.Exercise]
		res.PRs[key] = info
	}

	return res
}

// Entries returns all PR entries ordered by date, exercise and set index.
func (r *Result) Entries() []Info {
	out := make([]Info, 0, len(r.PRs))
	for _, info := range r.PRs {
		out = append(out, info)
	}
	sortInfos(out)
	return out
}

// Current returns the entries that are still unbeaten, in Entries order.
func (r *Result) Current() []Info {
	out := make([]Info, 0)
	for _, info := range r.Entries() {
		if info.IsCurrent() {
			out = append(out, info)
		}
	}
	return out
}

// ForExercise returns the entries for one exercise name, in Entries order.
func (r *Result) ForExercise(name string) []Info {
	out := make([]Info, 0)
	for _, info := range r.Entries() {
		if info.Exercise == name {
			out = append(out, info)
		}
	}
	return out
}

// MarshalJSON renders PRs keyed by their display string.
func (r *Result) MarshalJSON() ([]byte, error) {
	prs := make(map[string]Info, len(r.PRs))
	for k, v := range r.PRs {
		prs[k.String()] = v
	}
	return json.Marshal(struct {
		PRs                map[string]Info    `json:"prs"`
		MaxWeight          map[string]float64 `json:"maxWeightByExercise"`
		MaxRepsAtMaxWeight map[string]int     `json:"maxRepsAtMaxWeight"`
	}{prs, r.MaxWeight, r.MaxRepsAtMaxWeight})
}

func sortInfos(infos []Info) {
	sort.Slice(infos, func(i, j int) bool {
		a, b := infos[i], infos[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Exercise != b.Exercise {
			return a.Exercise < b.Exercise
		}
		return a.SetIndex < b.SetIndex
	})
}
