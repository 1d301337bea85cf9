package pr

import "sort"

// Best is an exercise's all-time top weight and the most reps done at it.
type Best struct {
	Exercise           string  `json:"exercise"`
	MaxWeight          float64 `json:"maxWeight"`
	MaxRepsAtMaxWeight int     `json:"maxRepsAtMaxWeight"`
	// Date of the set holding the current rep PR, empty if none was recorded.
	Date string `json:"date,omitempty"`
}

// Bests lists every exercise seen by Calculate, sorted by name.
func (r *Result) Bests() []Best {
	dates := make(map[string]string)
	for _, info := range r.PRs {
		if info.IsCurrentRepPR {
			if d, ok := dates[info.Exercise]; !ok || info.Date < d {
				dates[info.Exercise] = info.Date
			}
		}
	}

	out := make([]Best, 0, len(r.MaxWeight))
	for name, w := range r.MaxWeight {
		out = append(out, Best{
			Exercise:           name,
			MaxWeight:          w,
			MaxRepsAtMaxWeight: r.MaxRepsAtMaxWeight[name],
			Date:               dates[name],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Exercise < out[j].Exercise })
	return out
}
