package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fithub/records/internal/models"
	"github.com/fithub/records/internal/notify"
	"github.com/fithub/records/internal/pr"
	"github.com/fithub/records/internal/recordcache"
	"github.com/fithub/records/internal/storage"
	"github.com/fithub/records/internal/syncer"
)

const testAPIKey = "test-key"

func testRecords() []models.TrainingRecord {
	set := func(w float64, reps int) models.TrainingSet {
		return models.TrainingSet{Weight: models.Number(w), Reps: models.Number(reps)}
	}
	return []models.TrainingRecord{
		{ID: 1, Date: "2024-01-01", Exercises: []models.TrainingRecordExercise{
			{Name: "Bench", Sets: []models.TrainingSet{set(100, 5)}},
		}},
		{ID: 3, Date: "2024-01-15", Exercises: []models.TrainingRecordExercise{
			{Name: "Bench", Sets: []models.TrainingSet{set(90, 10)}},
		}},
		{ID: 2, Date: "2024-01-08", Exercises: []models.TrainingRecordExercise{
			{Name: "Bench", Sets: []models.TrainingSet{set(105, 3), set(105, 4)}},
			{Name: "Squat", Sets: []models.TrainingSet{set(140, 5)}},
		}},
	}
}

func newTestServer(t *testing.T, records []models.TrainingRecord, loadErr error) (*Server, *notify.Center) {
	t.Helper()
	return newLoggedTestServer(t, records, loadErr, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newLoggedTestServer(t *testing.T, records []models.TrainingRecord, loadErr error, log *slog.Logger) (*Server, *notify.Center) {
	t.Helper()
	cache := recordcache.New(recordcache.LoaderFunc(func(context.Context) ([]models.TrainingRecord, error) {
		return records, loadErr
	}), 0, nil)
	notes := notify.NewCenter(10)
	return New(cache, notes, 1, testAPIKey, log), notes
}

func do(t *testing.T, h http.Handler, method, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// TestHandleRecordsNewestFirst verifies records are listed by date descending.
func TestHandleRecordsNewestFirst(t *testing.T) {
	s, _ := newTestServer(t, testRecords(), nil)
	rec := do(t, s, http.MethodGet, "/api/v1/records")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	records := decode[[]models.TrainingRecord](t, rec)
	var dates []string
	for _, r := range records {
		dates = append(dates, r.Date)
	}
	if got := strings.Join(dates, ","); got != "2024-01-15,2024-01-08,2024-01-01" {
		t.Errorf("dates = %s", got)
	}
}

// TestHandlePRsFull verifies the full result uses display-string keys and maxima maps.
func TestHandlePRsFull(t *testing.T) {
	s, _ := newTestServer(t, testRecords(), nil)
	rec := do(t, s, http.MethodGet, "/api/v1/prs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decode[struct {
		PRs       map[string]pr.Info `json:"prs"`
		MaxWeight map[string]float64 `json:"maxWeightByExercise"`
	}](t, rec)
	if _, ok := body.PRs["2024-01-08_Bench_1"]; !ok {
		t.Errorf("missing 2024-01-08_Bench_1 in %v", body.PRs)
	}
	if body.MaxWeight["Bench"] != 105 || body.MaxWeight["Squat"] != 140 {
		t.Errorf("maxWeight = %v", body.MaxWeight)
	}
}

// TestHandlePRsFilters verifies current-only and per-exercise filtering.
func TestHandlePRsFilters(t *testing.T) {
	s, _ := newTestServer(t, testRecords(), nil)

	tests := []struct {
		query string
		want  []string
	}{
		{"?current=true", []string{"2024-01-08_Bench_0", "2024-01-08_Bench_1", "2024-01-08_Squat_0"}},
		{"?exercise=Bench", []string{"2024-01-01_Bench_0", "2024-01-08_Bench_0", "2024-01-08_Bench_1"}},
		{"?exercise=Bench&current=true", []string{"2024-01-08_Bench_0", "2024-01-08_Bench_1"}},
		{"?exercise=Deadlift", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/v1/prs"+tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			infos := decode[[]pr.Info](t, rec)
			var keys []string
			for _, i := range infos {
				keys = append(keys, i.Key().String())
			}
			if strings.Join(keys, ",") != strings.Join(tt.want, ",") {
				t.Errorf("keys = %v, want %v", keys, tt.want)
			}
		})
	}
}

// TestHandleRecordPRs verifies the per-record summary and its error cases.
func TestHandleRecordPRs(t *testing.T) {
	s, _ := newTestServer(t, testRecords(), nil)

	rec := do(t, s, http.MethodGet, "/api/v1/records/2024-01-08/prs")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	summary := decode[pr.Summary](t, rec)
	if !summary.HasPR || !summary.HasNowPR || len(summary.Items) != 3 {
		t.Errorf("summary = %+v", summary)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/records/2024-01-15/prs")
	summary = decode[pr.Summary](t, rec)
	if summary.HasPR || summary.Items == nil || len(summary.Items) != 0 {
		t.Errorf("no-PR summary = %+v", summary)
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/records/2024-02-01/prs"); rec.Code != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/records/01-08-2024/prs"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", rec.Code)
	}
}

// TestHandleDatePR verifies the historical and current flags per date.
func TestHandleDatePR(t *testing.T) {
	s, _ := newTestServer(t, testRecords(), nil)

	tests := []struct {
		date             string
		hasPR, isCurrent bool
	}{
		{"2024-01-01", true, false},
		{"2024-01-08", true, true},
		{"2024-01-15", false, false},
		{"2024-03-01", false, false},
	}
	for _, tt := range tests {
		rec := do(t, s, http.MethodGet, "/api/v1/dates/"+tt.date+"/pr")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.date, rec.Code)
		}
		day := decode[pr.CalendarDay](t, rec)
		if day.HasPR != tt.hasPR || day.HasCurrentPR != tt.isCurrent {
			t.Errorf("%s: got %+v, want hasPR=%v current=%v", tt.date, day, tt.hasPR, tt.isCurrent)
		}
	}
}

// TestHandleCalendar verifies month parsing and day flags.
func TestHandleCalendar(t *testing.T) {
	s, _ := newTestServer(t, testRecords(), nil)

	rec := do(t, s, http.MethodGet, "/api/v1/calendar?month=2024-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[struct {
		Month string           `json:"month"`
		Days  []pr.CalendarDay `json:"days"`
	}](t, rec)
	if len(body.Days) != 31 {
		t.Fatalf("got %d days, want 31", len(body.Days))
	}
	if !body.Days[7].HasCurrentPR || !body.Days[0].HasPR || body.Days[14].HasPR {
		t.Errorf("days 1/8/15 = %+v %+v %+v", body.Days[0], body.Days[7], body.Days[14])
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/calendar?month=2024-13"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d, want 400", rec.Code)
	}
}

// TestHandleBests verifies the per-exercise bests list.
func TestHandleBests(t *testing.T) {
	s, _ := newTestServer(t, testRecords(), nil)
	rec := do(t, s, http.MethodGet, "/api/v1/exercises/bests")
	bests := decode[[]pr.Best](t, rec)
	if len(bests) != 2 || bests[0].Exercise != "Bench" || bests[0].MaxRepsAtMaxWeight != 4 {
		t.Errorf("bests = %+v", bests)
	}
}

// TestHandleLoadError verifies loader failures surface as 502.
func TestHandleLoadError(t *testing.T) {
	s, _ := newTestServer(t, nil, errors.New("backend unreachable"))
	rec := do(t, s, http.MethodGet, "/api/v1/prs")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

// TestHandleBadCurrentParam verifies a malformed boolean is rejected.
func TestHandleBadCurrentParam(t *testing.T) {
	s, _ := newTestServer(t, testRecords(), nil)
	if rec := do(t, s, http.MethodGet, "/api/v1/prs?current=maybe"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestNotifications verifies listing and API-key protected dismissal.
func TestNotifications(t *testing.T) {
	s, notes := newTestServer(t, testRecords(), nil)
	n := notes.Push(notify.KindNewPR, "New max weight PR")

	list := decode[[]notify.Notification](t, do(t, s, http.MethodGet, "/api/v1/notifications"))
	if len(list) != 1 || list[0].ID != n.ID {
		t.Fatalf("list = %+v", list)
	}

	if rec := do(t, s, http.MethodDelete, "/api/v1/notifications/1"); rec.Code != http.StatusUnauthorized {
		t.Errorf("dismiss without key = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/v1/notifications/1", "X-API-Key", testAPIKey); rec.Code != http.StatusNoContent {
		t.Errorf("dismiss = %d, want 204", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/v1/notifications/1", "X-API-Key", testAPIKey); rec.Code != http.StatusNotFound {
		t.Errorf("second dismiss = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/v1/notifications/abc", "X-API-Key", testAPIKey); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", rec.Code)
	}
}

type stubSyncer struct {
	stats *syncer.Stats
	err   error
}

func (s stubSyncer) Run(context.Context) (*syncer.Stats, error) { return s.stats, s.err }

// TestHandleSync verifies the trigger endpoint's status mapping.
func TestHandleSync(t *testing.T) {
	tests := []struct {
		name   string
		runner SyncRunner
		want   int
	}{
		{"not configured", nil, http.StatusServiceUnavailable},
		{"success", stubSyncer{stats: &syncer.Stats{RecordsReceived: 3}}, http.StatusOK},
		{"in progress", stubSyncer{err: syncer.ErrInProgress}, http.StatusConflict},
		{"backend error", stubSyncer{err: errors.New("fetch failed")}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, testRecords(), nil)
			if tt.runner != nil {
				s.SetSyncer(tt.runner)
			}
			rec := do(t, s, http.MethodPost, "/api/v1/sync", "X-API-Key", testAPIKey)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

type stubStore struct {
	logs      []storage.SyncLog
	lastLimit int
}

func (s *stubStore) GetDataStats(context.Context, int) (*storage.DataStats, error) {
	return &storage.DataStats{TotalRecords: 3}, nil
}

func (s *stubStore) QuerySyncLogs(_ context.Context, _ int, limit int) ([]storage.SyncLog, error) {
	s.lastLimit = limit
	return s.logs, nil
}

// TestHandleStatsAndSyncLogs verifies the storage-backed endpoints and limit parsing.
func TestHandleStatsAndSyncLogs(t *testing.T) {
	s, _ := newTestServer(t, testRecords(), nil)
	if rec := do(t, s, http.MethodGet, "/api/v1/stats"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("stats without store = %d, want 503", rec.Code)
	}

	store := &stubStore{logs: []storage.SyncLog{{ID: 1, Status: storage.SyncSuccess}}}
	s.SetStore(store)

	stats := decode[storage.DataStats](t, do(t, s, http.MethodGet, "/api/v1/stats"))
	if stats.TotalRecords != 3 {
		t.Errorf("total_records = %d, want 3", stats.TotalRecords)
	}

	logs := decode[[]storage.SyncLog](t, do(t, s, http.MethodGet, "/api/v1/sync/logs?limit=5"))
	if len(logs) != 1 || store.lastLimit != 5 {
		t.Errorf("logs = %+v, limit = %d", logs, store.lastLimit)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/sync/logs?limit=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit = %d, want 400", rec.Code)
	}
}
