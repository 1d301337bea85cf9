package pr

import (
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/fithub/records/internal/models"
)

func time2date(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(models.DateLayout)
}

// TestDateHasPR verifies the day-level lookups against a small history.
func TestDateHasPR(t *testing.T) {
	res := Calculate([]models.TrainingRecord{
		record("2024-01-01", exercise("Squat", set(100, 5))),
		record("2024-01-03", exercise("Squat", set(90, 5))),
		record("2024-01-08", exercise("Squat", set(110, 5))),
	})

	tests := []struct {
		date        string
		wantPR      bool
		wantCurrent bool
	}{
		{"2024-01-01", true, false},
		{"2024-01-03", false, false},
		{"2024-01-08", true, true},
		{"2024-02-01", false, false},
	}
	for _, tt := range tests {
		if got := DateHasPR(res.PRs, tt.date); got != tt.wantPR {
			t.Errorf("DateHasPR(%s) = %v, want %v", tt.date, got, tt.wantPR)
		}
		if got := DateHasCurrentPR(res.PRs, tt.date); got != tt.wantCurrent {
			t.Errorf("DateHasCurrentPR(%s) = %v, want %v", tt.date, got, tt.wantCurrent)
		}
	}

	if DateHasPR(nil, "2024-01-01") || DateHasCurrentPR(nil, "2024-01-01") {
		t.Error("nil map should have no PRs")
	}
}

var trickyNames = []string{"Squat", "Bench Press", "a_b_c", "_", "2024-01-01"}

// TestDateHasPRMatchesKeyPrefix is a randomized check that the structured
// lookup agrees with the "{date}_" prefix rule on the display keys.
func TestDateHasPRMatchesKeyPrefix(t *testing.T) {
	f := gofakeit.New(2024)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for round := 0; round < 200; round++ {
		prs := make(map[Key]Info)
		n := f.IntRange(0, 12)
		for i := 0; i < n; i++ {
			k := NewKey(
				f.DateRange(start, end).Format(models.DateLayout),
				f.RandomString(trickyNames),
				f.IntRange(0, 6),
			)
			prs[k] = Info{Date: k.Date, Exercise: k.Exercise, SetIndex: k.SetIndex, IsCurrentMaxPR: f.Bool()}
		}

		probe := f.DateRange(start, end).Format(models.DateLayout)
		want := false
		for k := range prs {
			if strings.HasPrefix(k.String(), probe+"_") {
				want = true
				break
			}
		}
		if got := DateHasPR(prs, probe); got != want {
			t.Fatalf("round %d: DateHasPR(%s) = %v, prefix rule says %v", round, probe, got, want)
		}
	}
}

// TestCalendar verifies the month view covers every day and flags PR days.
func TestCalendar(t *testing.T) {
	res := Calculate([]models.TrainingRecord{
		record("2024-02-10", exercise("Squat", set(100, 5))),
		record("2024-02-29", exercise("Squat", set(105, 5))),
	})

	days := Calendar(res.PRs, 2024, time.February)
	if len(days) != 29 {
		t.Fatalf("days = %d, want 29 (leap year)", len(days))
	}
	if days[0].Date != "2024-02-01" || days[28].Date != "2024-02-29" {
		t.Errorf("range = %s..%s", days[0].Date, days[28].Date)
	}
	if !days[9].HasPR || days[9].HasCurrentPR {
		t.Errorf("feb 10 = %+v, want historical PR", days[9])
	}
	if !days[28].HasPR || !days[28].HasCurrentPR {
		t.Errorf("feb 29 = %+v, want current PR", days[28])
	}
	if days[0].HasPR {
		t.Errorf("feb 1 = %+v, want no PR", days[0])
	}
}

// TestParseMonth verifies YYYY-MM parsing.
func TestParseMonth(t *testing.T) {
	y, m, err := ParseMonth("2024-11")
	if err != nil {
		t.Fatal(err)
	}
	if y != 2024 || m != time.November {
		t.Errorf("got %d-%d", y, m)
	}
	if _, _, err := ParseMonth("2024-13"); err == nil {
		t.Error("expected error for month 13")
	}
}
