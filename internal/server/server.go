package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fithub/records/internal/metrics"
	"github.com/fithub/records/internal/notify"
	"github.com/fithub/records/internal/recordcache"
	"github.com/fithub/records/internal/storage"
	"github.com/fithub/records/internal/syncer"
)

// Store is the part of the local mirror the API reads directly.
type Store interface {
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	QuerySyncLogs(ctx context.Context, userID, limit int) ([]storage.SyncLog, error)
}

// SyncRunner triggers a mirror run.
type SyncRunner interface {
	Run(ctx context.Context) (*syncer.Stats, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	cache   *recordcache.Cache
	notes   *notify.Center
	store   Store
	sync    SyncRunner
	metrics *metrics.Manager
	whois   WhoIser
	userID  int
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured. PR data is served
// from cache; notes holds the notifications exposed to clients.
func New(cache *recordcache.Cache, notes *notify.Center, userID int, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		cache:  cache,
		notes:  notes,
		userID: userID,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(s.tailnetIdentity)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(s.instrument)
	s.router.Use(CORS)

	s.router.Get("/api/v1/health", s.handleHealth)

	s.router.Get("/api/v1/records", s.handleRecords)
	s.router.Get("/api/v1/records/{date}/prs", s.handleRecordPRs)
	s.router.Get("/api/v1/prs", s.handlePRs)
	s.router.Get("/api/v1/exercises/bests", s.handleBests)
	s.router.Get("/api/v1/calendar", s.handleCalendar)
	s.router.Get("/api/v1/dates/{date}/pr", s.handleDatePR)
	s.router.Get("/api/v1/notifications", s.handleNotifications)
	s.router.Get("/api/v1/stats", s.handleStats)
	s.router.Get("/api/v1/sync/logs", s.handleSyncLogs)

	// Mutating endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/sync", s.handleSync)
		r.Delete("/api/v1/notifications/{id}", s.handleDismissNotification)
	})
}

// SetStore enables the stats and sync log endpoints.
func (s *Server) SetStore(store Store) {
	s.store = store
}

// SetSyncer enables POST /api/v1/sync.
func (s *Server) SetSyncer(r SyncRunner) {
	s.sync = r
}

// SetMetrics counts requests into m and serves g on /metrics.
func (s *Server) SetMetrics(m *metrics.Manager, g prometheus.Gatherer) {
	s.metrics = m
	s.router.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// SetTailscale attaches the tailnet identity of each caller to its request.
func (s *Server) SetTailscale(w WhoIser) {
	s.whois = w
}

// MountMCP serves an MCP transport on /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}
