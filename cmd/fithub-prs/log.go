package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/fithub/records/internal/models"
)

// runLog saves one set. Bounds are checked before anything is sent.
func runLog(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("log", flag.ContinueOnError)
	bf := addBackendFlags(fs)
	exercise := fs.String("exercise", "", "exercise name from the catalog")
	weight := fs.Float64("weight", 0, "weight in kg")
	reps := fs.Int("reps", 0, "rep count")
	date := fs.String("date", today(), "record date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if *exercise == "" || !set["weight"] || !set["reps"] {
		fmt.Fprintln(os.Stderr, "Usage: fithub-prs log -exercise NAME -weight KG -reps N [-date YYYY-MM-DD]")
		fs.PrintDefaults()
		return fmt.Errorf("-exercise, -weight and -reps are required")
	}

	req := models.SaveRecordRequest{
		Date: *date,
		Exercises: []models.SaveExercise{{
			Sets: []models.SaveSet{{Weight: *weight, Reps: *reps}},
		}},
	}
	if err := req.Validate(); err != nil {
		return err
	}

	client, err := bf.client()
	if err != nil {
		return err
	}
	catalog, err := client.FetchExercises(ctx)
	if err != nil {
		return fmt.Errorf("fetching exercises: %w", err)
	}
	ex, ok := findExercise(catalog, *exercise)
	if !ok {
		return fmt.Errorf("exercise %q not in catalog", *exercise)
	}
	req.Exercises[0].ExerciseID = ex.ID

	resp, err := client.SaveRecord(ctx, req)
	if err != nil {
		return fmt.Errorf("saving set: %w", err)
	}

	color.Green("✓ Logged %s %s kg x %d on %s", ex.Name, formatKg(*weight), *reps, resp.Date)
	if resp.ExpGained != nil {
		fmt.Println(faint.Sprintf("  +%d exp", *resp.ExpGained))
	}
	if resp.NewLevel != nil {
		color.Yellow("  Level up: %d", *resp.NewLevel)
	}
	return nil
}

// findExercise matches case-insensitively, preferring an exact match.
func findExercise(catalog []models.Exercise, name string) (models.Exercise, bool) {
	var fold *models.Exercise
	for i, ex := range catalog {
		if ex.Name == name {
			return ex, true
		}
		if fold == nil && strings.EqualFold(ex.Name, name) {
			fold = &catalog[i]
		}
	}
	if fold != nil {
		return *fold, true
	}
	return models.Exercise{}, false
}

func today() string {
	return time.Now().Format(models.DateLayout)
}

// runDelete removes a single set or a whole record by backend id.
func runDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	bf := addBackendFlags(fs)
	setID := fs.Int64("set", 0, "backend id of the set to delete")
	recordID := fs.Int64("record", 0, "backend id of the record to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*setID == 0) == (*recordID == 0) {
		fmt.Fprintln(os.Stderr, "Usage: fithub-prs delete (-set ID | -record ID)")
		fs.PrintDefaults()
		return fmt.Errorf("exactly one of -set and -record is required")
	}

	client, err := bf.client()
	if err != nil {
		return err
	}
	if *setID != 0 {
		if err := client.DeleteSet(ctx, *setID); err != nil {
			return fmt.Errorf("deleting set %d: %w", *setID, err)
		}
		color.Yellow("✗ Deleted set %d", *setID)
		return nil
	}
	if err := client.DeleteRecord(ctx, *recordID); err != nil {
		return fmt.Errorf("deleting record %d: %w", *recordID, err)
	}
	color.Yellow("✗ Deleted record %d", *recordID)
	return nil
}
