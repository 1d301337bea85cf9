package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/fithub/records/internal/models"
	"github.com/fithub/records/internal/pr"
)

var (
	faint  = color.New(color.Faint)
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

func printTable(w io.Writer, infos []pr.Info) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No PRs found.")
		return
	}
	fmt.Fprintln(w, bold.Sprintf("%s %s %s %s  %s",
		padRight("DATE", 10), padRight("EXERCISE", 24), padLeft("KG", 7), padLeft("REPS", 4), "BADGES"))
	for _, info := range infos {
		date := info.Date
		if !info.IsCurrent() {
			date = faint.Sprint(date)
		}
		fmt.Fprintf(w, "%s %s %s %s  %s\n",
			date,
			padRight(info.Exercise, 24),
			padLeft(formatKg(info.Weight), 7),
			padLeft(strconv.Itoa(info.Reps), 4),
			badges(info.MaxWeightPR, info.IsCurrentMaxPR, info.RepPR, info.IsCurrentRepPR))
	}
}

func printSummary(w io.Writer, date string, s pr.Summary) {
	switch {
	case s.HasNowPR:
		fmt.Fprintln(w, green.Sprintf("★ %s holds a current PR", date))
	case s.HasPR:
		fmt.Fprintln(w, yellow.Sprintf("☆ %s set a PR that has since been beaten", date))
	default:
		fmt.Fprintf(w, "%s has no PRs\n", date)
		return
	}
	for _, item := range s.Items {
		fmt.Fprintf(w, "  %s %s kg x %d  %s\n",
			padRight(item.Exercise, 24),
			formatKg(item.Weight),
			item.Reps,
			badges(item.IsMaxWeightPR, item.IsCurrentMaxPR, item.IsRepPR, item.IsCurrentRepPR))
	}
}

// printCalendar lays the month out Monday first.
func printCalendar(w io.Writer, days []pr.CalendarDay) {
	if len(days) == 0 {
		return
	}
	first, err := models.ParseDate(days[0].Date)
	if err != nil {
		return
	}
	fmt.Fprintln(w, bold.Sprint(first.Format("January 2006")))
	fmt.Fprintln(w, faint.Sprint("Mo Tu We Th Fr Sa Su"))

	offset := (int(first.Weekday()) + 6) % 7
	fmt.Fprint(w, strings.Repeat("   ", offset))
	for i, d := range days {
		cell := fmt.Sprintf("%2d", i+1)
		switch {
		case d.HasCurrentPR:
			cell = green.Sprint(cell)
		case d.HasPR:
			cell = yellow.Sprint(cell)
		}
		fmt.Fprint(w, cell)
		if (offset+i+1)%7 == 0 {
			fmt.Fprintln(w)
		} else if i < len(days)-1 {
			fmt.Fprint(w, " ")
		}
	}
	if (offset+len(days))%7 != 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, faint.Sprintf("%s current PR  %s past PR",
		green.Sprint("■"), yellow.Sprint("■")))
}

func printBests(w io.Writer, bests []pr.Best) {
	if len(bests) == 0 {
		fmt.Fprintln(w, "No PRs found.")
		return
	}
	fmt.Fprintln(w, bold.Sprintf("%s %s %s  %s",
		padRight("EXERCISE", 24), padLeft("KG", 7), padLeft("REPS", 4), "SINCE"))
	for _, b := range bests {
		fmt.Fprintf(w, "%s %s %s  %s\n",
			padRight(b.Exercise, 24),
			padLeft(formatKg(b.MaxWeight), 7),
			padLeft(strconv.Itoa(b.MaxRepsAtMaxWeight), 4),
			faint.Sprint(b.Date))
	}
}

func badges(maxPR, currentMax, repPR, currentRep bool) string {
	var out []string
	if maxPR {
		if currentMax {
			out = append(out, green.Sprint("MAX"))
		} else {
			out = append(out, faint.Sprint("max"))
		}
	}
	if repPR {
		if currentRep {
			out = append(out, green.Sprint("REPS"))
		} else {
			out = append(out, faint.Sprint("reps"))
		}
	}
	return strings.Join(out, " ")
}

func formatKg(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64)
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func padLeft(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(" ", length-len(s)) + s
}
