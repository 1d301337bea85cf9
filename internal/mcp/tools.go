package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fithub/records/internal/models"
	"github.com/fithub/records/internal/pr"
)

// defaultDateRange returns start/end dates defaulting to the last 30 days.
func defaultDateRange(startStr, endStr string, now time.Time) (string, string, error) {
	end := now.Format(models.DateLayout)
	if endStr != "" {
		if _, err := models.ParseDate(endStr); err != nil {
			return "", "", err
		}
		end = endStr
	}

	start := now.AddDate(0, 0, -30).Format(models.DateLayout)
	if startStr != "" {
		if _, err := models.ParseDate(startStr); err != nil {
			return "", "", err
		}
		start = startStr
	}
	return start, end, nil
}

// --- Tool definitions ---

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("List PR sets ordered by date. Each entry says whether it was a max-weight PR, a rep PR, and whether it is still current."),
	mcp.WithString("exercise", mcp.Description("Exact exercise name (e.g. 'Bench Press'). Defaults to all exercises.")),
	mcp.WithBoolean("current_only", mcp.Description("Only return PRs that are still unbeaten. Defaults to false.")),
)

var toolGetRecordPRs = mcp.NewTool("get_record_prs",
	mcp.WithDescription("Summarise the PRs set in one day's workout: whether any PR was set, whether any is still current, and the PR sets themselves."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Workout date (YYYY-MM-DD)")),
)

var toolGetPRCalendar = mcp.NewTool("get_pr_calendar",
	mcp.WithDescription("For each day of a month, whether a PR was set and whether one of them is still current."),
	mcp.WithString("month", mcp.Description("Month (YYYY-MM). Defaults to the current month.")),
)

var toolGetExerciseBests = mcp.NewTool("get_exercise_bests",
	mcp.WithDescription("All-time top weight per exercise and the most reps performed at that weight."),
)

var toolGetTrainingRecords = mcp.NewTool("get_training_records",
	mcp.WithDescription("Workout records with every exercise and set in a date range."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD), inclusive. Defaults to today.")),
)

// --- Tool handlers ---

func (h *handlers) load(ctx context.Context) ([]models.TrainingRecord, *pr.Result, error) {
	if h.snaps != nil {
		snap, err := h.snaps.Get(ctx)
		if err != nil {
			return nil, nil, err
		}
		return snap.Records, snap.Result, nil
	}
	records, err := h.ds.ListRecords(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, nil, err
	}
	return records, pr.Calculate(records), nil
}

func (h *handlers) getPersonalRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise := req.GetString("exercise", "")
	currentOnly := req.GetBool("current_only", false)

	_, res, err := h.load(ctx)
	if err != nil {
		h.log.Error("mcp get_personal_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	entries := res.Entries()
	if exercise != "" {
		entries = res.ForExercise(exercise)
	}
	out := make([]pr.Info, 0, len(entries))
	for _, e := range entries {
		if !currentOnly || e.IsCurrent() {
			out = append(out, e)
		}
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRecordPRs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}
	if _, err := models.ParseDate(date); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, res, err := h.load(ctx)
	if err != nil {
		h.log.Error("mcp get_record_prs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	for _, rec := range records {
		if rec.Date == date {
			result, err := mcp.NewToolResultJSON(pr.SummaryForRecord(rec, res.PRs))
			if err != nil {
				return mcp.NewToolResultError("serialization failed"), nil
			}
			return result, nil
		}
	}
	return mcp.NewToolResultError("no workout recorded on " + date), nil
}

func (h *handlers) getPRCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	month := req.GetString("month", time.Now().Format("2006-01"))
	year, m, err := pr.ParseMonth(month)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	_, res, err := h.load(ctx)
	if err != nil {
		h.log.Error("mcp get_pr_calendar", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"month": month,
		"days":  pr.Calendar(res.PRs, year, m),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseBests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, res, err := h.load(ctx)
	if err != nil {
		h.log.Error("mcp get_exercise_bests", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(res.Bests())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultDateRange(req.GetString("start", ""), req.GetString("end", ""), time.Now())
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	records, err := h.ds.ListRecords(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp get_training_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	// ISO dates compare correctly as strings.
	out := make([]models.TrainingRecord, 0)
	for _, rec := range records {
		if rec.Date >= start && rec.Date <= end {
			out = append(out, rec)
		}
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
