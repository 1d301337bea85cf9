package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"tailscale.com/tsnet"

	"github.com/fithub/records/internal/backend"
	"github.com/fithub/records/internal/config"
	"github.com/fithub/records/internal/mcp"
	"github.com/fithub/records/internal/metrics"
	"github.com/fithub/records/internal/notify"
	"github.com/fithub/records/internal/recordcache"
	"github.com/fithub/records/internal/server"
	"github.com/fithub/records/internal/storage"
	"github.com/fithub/records/internal/syncer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const cacheTTL = 5 * time.Minute

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := cfg.Log.NewLogger()
	log.Info("fithub records starting", "version", Version)

	dsn := cfg.Database.DSN()
	version, err := storage.RunMigrations(dsn, "migrations")
	if err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied", "version", version)

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	userID, err := db.GetOrCreateUser(ctx, cfg.Sync.UserLogin, "")
	if err != nil {
		log.Error("failed to resolve user", "login", cfg.Sync.UserLogin, "error", err)
		os.Exit(1)
	}

	m := metrics.NewManager(prometheus.DefaultRegisterer)
	cache := recordcache.New(db.ForUser(userID), cacheTTL, m)
	notes := notify.NewCenter(notify.DefaultCapacity)

	state, err := syncer.OpenStateDB(cfg.Sync.StateDir)
	if err != nil {
		log.Error("failed to open sync state", "dir", cfg.Sync.StateDir, "error", err)
		os.Exit(1)
	}
	defer state.Close()

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.SessionCookie,
		backend.WithTimeout(cfg.Backend.Timeout))
	runner := syncer.New(client, db, state, userID, syncer.Options{
		Cache:   cache,
		Notify:  notes,
		Metrics: m,
	}, log)

	srv := server.New(cache, notes, userID, cfg.Auth.APIKey, log)
	srv.SetStore(db)
	srv.SetSyncer(runner)
	srv.SetMetrics(m, prometheus.DefaultGatherer)
	srv.MountMCP(mcpserver.NewStreamableHTTPServer(
		mcp.New(db, Version, log, mcp.WithSnapshots(cache)),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, _ *http.Request) context.Context {
			return mcp.WithUserID(ctx, userID)
		}),
	))

	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{Handler: srv}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		runner.Loop(gctx, cfg.Sync.Interval)
		return nil
	})
	g.Go(func() error {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
