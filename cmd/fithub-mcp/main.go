package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/fithub/records/internal/backend"
	"github.com/fithub/records/internal/config"
	"github.com/fithub/records/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	baseURL := flag.String("url", os.Getenv("FITHUB_BACKEND_URL"), "Fithub backend base URL")
	session := flag.String("session", os.Getenv("FITHUB_BACKEND_SESSION"), "session Cookie header value")
	timeout := flag.Duration("timeout", 30*time.Second, "per-request timeout")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fithub-mcp", Version)
		return
	}

	if *baseURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: fithub-mcp -url <backend URL> [-session <cookie>]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level, err := config.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client := backend.NewClient(*baseURL, *session, backend.WithTimeout(*timeout))
	s := mcp.New(mcp.NewBackendSource(client), Version, log)

	log.Info("fithub-mcp serving on stdio", "version", Version, "backend", *baseURL)
	if err := server.ServeStdio(s); err != nil {
		log.Error("stdio server stopped", "error", err)
		os.Exit(1)
	}
}
