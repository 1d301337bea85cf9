package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fithub/records/internal/backend"
	"github.com/fithub/records/internal/config"
	"github.com/fithub/records/internal/storage"
	"github.com/fithub/records/internal/syncer"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "fetch and compute PRs without writing the mirror or sync state")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fithub-sync", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Log.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store  syncer.Store
		userID int
	)
	if !*dryRun {
		db, err := storage.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		userID, err = db.GetOrCreateUser(ctx, cfg.Sync.UserLogin, "")
		if err != nil {
			log.Error("failed to resolve user", "login", cfg.Sync.UserLogin, "error", err)
			os.Exit(1)
		}
		store = db
	} else {
		log.Info("DRY RUN mode: nothing will be written")
	}

	state, err := syncer.OpenStateDB(cfg.Sync.StateDir)
	if err != nil {
		log.Error("failed to open sync state", "dir", cfg.Sync.StateDir, "error", err)
		os.Exit(1)
	}
	defer state.Close()

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.SessionCookie,
		backend.WithTimeout(cfg.Backend.Timeout))

	stats, err := syncer.New(client, store, state, userID, syncer.Options{DryRun: *dryRun}, log).Run(ctx)
	if err != nil {
		log.Error("sync failed", "error", err)
		os.Exit(1)
	}
	printStats(stats)
}

func printStats(s *syncer.Stats) {
	fmt.Println()
	fmt.Println("=== Sync Summary ===")
	fmt.Printf("Run:              %s\n", s.RunID)
	if s.DryRun {
		fmt.Println("Mode:             dry run")
	}
	fmt.Printf("Records received: %d\n", s.RecordsReceived)
	fmt.Printf("Records changed:  %d\n", s.RecordsChanged)
	fmt.Printf("Records removed:  %d\n", s.RecordsRemoved)
	fmt.Printf("Sets stored:      %d\n", s.SetsStored)
	fmt.Printf("Current PRs:      %d\n", s.CurrentPRs)
	fmt.Printf("New PRs:          %d\n", len(s.NewPRs))
	for _, info := range s.NewPRs {
		fmt.Printf("  %s\n", syncer.Describe(info))
	}
	fmt.Printf("Duration:         %s\n", s.Duration)
}
