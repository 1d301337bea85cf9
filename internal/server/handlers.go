package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fithub/records/internal/models"
	"github.com/fithub/records/internal/pr"
	"github.com/fithub/records/internal/recordcache"
	"github.com/fithub/records/internal/syncer"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// snapshot loads the current records and PRs, writing the error response itself on failure.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*recordcache.Snapshot, bool) {
	snap, err := s.cache.Get(r.Context())
	if err != nil {
		s.log.Error("loading records", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return nil, false
	}
	return snap, true
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	records := make([]models.TrainingRecord, len(snap.Records))
	copy(records, snap.Records)
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date > records[j].Date })
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handlePRs(w http.ResponseWriter, r *http.Request) {
	currentOnly, err := parseBool(r.URL.Query().Get("current"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "current must be true or false"})
		return
	}
	exercise := r.URL.Query().Get("exercise")

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	if !currentOnly && exercise == "" {
		writeJSON(w, http.StatusOK, snap.Result)
		return
	}

	entries := snap.Result.Entries()
	if exercise != "" {
		entries = snap.Result.ForExercise(exercise)
	}
	out := make([]pr.Info, 0, len(entries))
	for _, e := range entries {
		if !currentOnly || e.IsCurrent() {
			out = append(out, e)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecordPRs(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := models.ParseDate(date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	for _, rec := range snap.Records {
		if rec.Date == date {
			writeJSON(w, http.StatusOK, pr.SummaryForRecord(rec, snap.Result.PRs))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "no record on " + date})
}

func (s *Server) handleBests(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap.Result.Bests())
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	year, m, err := pr.ParseMonth(month)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"month": month,
		"days":  pr.Calendar(snap.Result.PRs, year, m),
	})
}

func (s *Server) handleDatePR(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := models.ParseDate(date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, pr.CalendarDay{
		Date:         date,
		HasPR:        pr.DateHasPR(snap.Result.PRs, date),
		HasCurrentPR: pr.DateHasCurrentPR(snap.Result.PRs, date),
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.notes.List())
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid notification id"})
		return
	}
	if !s.notes.Dismiss(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "sync is not configured"})
		return
	}

	stats, err := s.sync.Run(r.Context())
	if errors.Is(err, syncer.ErrInProgress) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.log.Error("sync error", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage is not configured"})
		return
	}
	stats, err := s.store.GetDataStats(r.Context(), s.userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage is not configured"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, 500)
	}

	logs, err := s.store.QuerySyncLogs(r.Context(), s.userID, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
