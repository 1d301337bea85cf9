// Package syncer mirrors the backend's workout history into local storage
// and announces personal records that became current since the last run.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fithub/records/internal/metrics"
	"github.com/fithub/records/internal/models"
	"github.com/fithub/records/internal/notify"
	"github.com/fithub/records/internal/pr"
	"github.com/fithub/records/internal/recordcache"
	"github.com/fithub/records/internal/storage"
)

// ErrInProgress is returned by Run when another run holds the syncer.
var ErrInProgress = errors.New("sync already in progress")

// Source provides the authoritative record history.
type Source interface {
	FetchRecords(ctx context.Context) ([]models.TrainingRecord, error)
}

// Store is the local mirror written by a run.
type Store interface {
	ReplaceRecords(ctx context.Context, userID int, records []models.TrainingRecord) (int64, error)
	InsertSyncLog(ctx context.Context, log storage.SyncLog) (int64, error)
	UpdateSyncLog(ctx context.Context, id int64, log storage.SyncLog) error
}

// Stats describes one run.
type Stats struct {
	RunID           uuid.UUID `json:"runId"`
	DryRun          bool      `json:"dryRun"`
	RecordsReceived int       `json:"recordsReceived"`
	RecordsChanged  int       `json:"recordsChanged"`
	RecordsRemoved  int       `json:"recordsRemoved"`
	SetsStored      int64     `json:"setsStored"`
	CurrentPRs      int       `json:"currentPRs"`
	NewPRs          []pr.Info `json:"newPRs"`
	Duration        string    `json:"duration"`
}

// Options carries the optional collaborators of a Syncer.
type Options struct {
	DryRun  bool
	Cache   *recordcache.Cache
	Notify  *notify.Center
	Metrics *metrics.Manager
}

type Syncer struct {
	source Source
	store  Store
	state  *StateDB
	userID int
	opts   Options
	log    *slog.Logger

	running sync.Mutex
}

// New creates a Syncer writing userID's history into store.
func New(source Source, store Store, state *StateDB, userID int, opts Options, log *slog.Logger) *Syncer {
	return &Syncer{
		source: source,
		store:  store,
		state:  state,
		userID: userID,
		opts:   opts,
		log:    log,
	}
}

// Run performs one sync. In dry-run mode nothing is written, no
// notifications are pushed and the cache is left alone.
func (s *Syncer) Run(ctx context.Context) (*Stats, error) {
	if !s.running.TryLock() {
		return nil, ErrInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	stats := &Stats{RunID: uuid.New(), DryRun: s.opts.DryRun, NewPRs: []pr.Info{}}
	entry := storage.SyncLog{UserID: s.userID, RunID: stats.RunID, Status: storage.SyncRunning}

	var logID int64
	if !s.opts.DryRun {
		id, err := s.store.InsertSyncLog(ctx, entry)
		if err != nil {
			s.log.Warn("failed to create sync log", "error", err)
		} else {
			logID = id
		}
	}

	err := s.run(ctx, stats)
	stats.Duration = time.Since(start).Round(time.Millisecond).String()

	status := storage.SyncSuccess
	if err != nil {
		status = storage.SyncError
		if s.opts.Notify != nil && !s.opts.DryRun {
			s.opts.Notify.Push(notify.KindSyncError, err.Error())
		}
	}
	if s.opts.Metrics != nil {
		s.opts.Metrics.SyncRuns.WithLabelValues(status).Inc()
	}

	if logID != 0 {
		entry.Status = status
		entry.RecordsReceived = stats.RecordsReceived
		entry.RecordsChanged = stats.RecordsChanged
		entry.RecordsRemoved = stats.RecordsRemoved
		entry.SetsStored = stats.SetsStored
		entry.NewPRs = len(stats.NewPRs)
		ms := int(time.Since(start).Milliseconds())
		entry.DurationMs = &ms
		if err != nil {
			msg := err.Error()
			entry.ErrorMessage = &msg
		}
		// The run's own context may be the one that failed.
		if uerr := s.store.UpdateSyncLog(context.WithoutCancel(ctx), logID, entry); uerr != nil {
			s.log.Warn("failed to update sync log", "id", logID, "error", uerr)
		}
	}

	if err != nil {
		return stats, err
	}
	s.log.Info("sync complete",
		"run_id", stats.RunID,
		"records", stats.RecordsReceived,
		"changed", stats.RecordsChanged,
		"removed", stats.RecordsRemoved,
		"new_prs", len(stats.NewPRs),
		"dry_run", s.opts.DryRun,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (s *Syncer) run(ctx context.Context, stats *Stats) error {
	records, err := s.source.FetchRecords(ctx)
	if err != nil {
		return fmt.Errorf("fetching records: %w", err)
	}
	stats.RecordsReceived = len(records)

	hashes := make(map[string]string, len(records))
	for _, rec := range records {
		h, err := HashRecord(rec)
		if err != nil {
			return err
		}
		hashes[rec.Date] = h
	}

	prevHashes, err := s.state.RecordHashes()
	if err != nil {
		return err
	}
	prevKeys, err := s.state.CurrentPRKeys()
	if err != nil {
		return err
	}
	stats.RecordsChanged, stats.RecordsRemoved = diffHashes(prevHashes, hashes)

	result := pr.Calculate(records)
	current := result.Current()
	stats.CurrentPRs = len(current)

	// Without a previous run every PR would look new. State written before
	// the sync marker existed still counts as a previous run.
	synced, err := s.state.HasSynced()
	if err != nil {
		return err
	}
	baseline := synced || len(prevHashes) > 0 || len(prevKeys) > 0
	currentKeys := make([]string, 0, len(current))
	for _, info := range current {
		k := info.Key().String()
		currentKeys = append(currentKeys, k)
		if baseline && !prevKeys[k] {
			stats.NewPRs = append(stats.NewPRs, info)
		}
	}

	if s.opts.DryRun {
		s.log.Info("dry run: skipping writes", "records", len(records), "would_notify", len(stats.NewPRs))
		return nil
	}

	stored, err := s.store.ReplaceRecords(ctx, s.userID, records)
	if err != nil {
		return fmt.Errorf("mirroring records: %w", err)
	}
	stats.SetsStored = stored

	if err := s.state.Save(hashes, currentKeys); err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}

	if s.opts.Cache != nil {
		s.opts.Cache.Invalidate()
	}
	if s.opts.Notify != nil {
		for _, info := range stats.NewPRs {
			s.opts.Notify.Push(notify.KindNewPR, Describe(info))
		}
	}
	return nil
}

// Loop runs a sync immediately and then every interval until ctx is done.
func (s *Syncer) Loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx); err != nil && !errors.Is(err, ErrInProgress) && ctx.Err() == nil {
			s.log.Error("sync failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Describe renders a PR as a one-line notice.
func Describe(info pr.Info) string {
	kind := "rep PR"
	if info.MaxWeightPR {
		kind = "max weight PR"
	}
	return fmt.Sprintf("New %s: %s %g kg x %d on %s", kind, info.Exercise, info.Weight, info.Reps, info.Date)
}
