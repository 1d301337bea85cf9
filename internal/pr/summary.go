package pr

import "github.com/fithub/records/internal/models"

// SummaryItem is one PR set within a record, for badge rendering.
type SummaryItem struct {
	Exercise       string  `json:"exercise"`
	Weight         float64 `json:"weight"`
	Reps           int     `json:"reps"`
	IsMaxWeightPR  bool    `json:"isMaxWeightPR"`
	IsRepPR        bool    `json:"isRepPR"`
	IsCurrentMaxPR bool    `json:"isCurrentMaxPR"`
	IsCurrentRepPR bool    `json:"isCurrentRepPR"`
}

// Summary tells whether a record holds any PR (HasPR) and any PR that is
// still unbeaten (HasNowPR).
type Summary struct {
	HasPR    bool          `json:"hasPR"`
	HasNowPR bool          `json:"hasNowPR"`
	Items    []SummaryItem `json:"summary"`
}

// SummaryForRecord collects the PR entries of one record in stored
// exercise and set order.
func SummaryForRecord(record models.TrainingRecord, prs map[Key]Info) Summary {
	s := Summary{Items: make([]SummaryItem, 0)}
	for _, ex := range record.Exercises {
		for idx := range ex.Sets {
			info, ok := prs[NewKey(record.Date, ex.Name, idx)]
			if !ok {
				continue
			}
			s.HasPR = true
			if info.IsCurrent() {
				s.HasNowPR = true
			}
			s.Items = append(s.Items, SummaryItem{
				Exercise:       ex.Name,
				Weight:         info.Weight,
				Reps:           info.Reps,
				IsMaxWeightPR:  info.MaxWeightPR,
				IsRepPR:        info.RepPR,
				IsCurrentMaxPR: info.IsCurrentMaxPR,
				IsCurrentRepPR: info.IsCurrentRepPR,
			})
		}
	}
	return s
}
