package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/fithub/records/internal/backend"
	"github.com/fithub/records/internal/pr"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const usage = `Usage:
  fithub-prs [-current] [-exercise NAME] [-bests]   PR table
  fithub-prs -date YYYY-MM-DD                       PRs set in one record
  fithub-prs -month YYYY-MM                         PR calendar
  fithub-prs log -exercise NAME -weight KG -reps N [-date YYYY-MM-DD]
  fithub-prs delete (-set ID | -record ID)

The backend is taken from -url/-session or FITHUB_BACKEND_URL/FITHUB_BACKEND_SESSION.
`

type backendFlags struct {
	url     *string
	session *string
	timeout *time.Duration
}

func addBackendFlags(fs *flag.FlagSet) backendFlags {
	return backendFlags{
		url:     fs.String("url", os.Getenv("FITHUB_BACKEND_URL"), "Fithub backend base URL"),
		session: fs.String("session", os.Getenv("FITHUB_BACKEND_SESSION"), "session Cookie header value"),
		timeout: fs.Duration("timeout", 30*time.Second, "per-request timeout"),
	}
}

func (b backendFlags) client() (*backend.Client, error) {
	if *b.url == "" {
		return nil, fmt.Errorf("-url is required (or set FITHUB_BACKEND_URL)")
	}
	return backend.NewClient(*b.url, *b.session, backend.WithTimeout(*b.timeout)), nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage+"\n")
		flag.PrintDefaults()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case len(os.Args) > 1 && os.Args[1] == "log":
		err = runLog(ctx, os.Args[2:])
	case len(os.Args) > 1 && os.Args[1] == "delete":
		err = runDelete(ctx, os.Args[2:])
	default:
		err = runReport(ctx)
	}
	if err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func runReport(ctx context.Context) error {
	bf := addBackendFlags(flag.CommandLine)
	current := flag.Bool("current", false, "only PRs that are still unbeaten")
	exercise := flag.String("exercise", "", "only PRs for this exercise")
	bests := flag.Bool("bests", false, "print all-time bests per exercise")
	date := flag.String("date", "", "show the PRs set in the record for this date")
	month := flag.String("month", "", "show a PR calendar for this month")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fithub-prs", Version)
		return nil
	}

	client, err := bf.client()
	if err != nil {
		flag.Usage()
		return err
	}

	records, err := client.FetchRecords(ctx)
	if err != nil {
		return fmt.Errorf("fetching records: %w", err)
	}
	result := pr.Calculate(records)
	out := os.Stdout

	switch {
	case *date != "":
		for _, rec := range records {
			if rec.Date == *date {
				printSummary(out, rec.Date, pr.SummaryForRecord(rec, result.PRs))
				return nil
			}
		}
		return fmt.Errorf("no record on %s", *date)
	case *month != "":
		year, m, err := pr.ParseMonth(*month)
		if err != nil {
			return err
		}
		printCalendar(out, pr.Calendar(result.PRs, year, m))
	case *bests:
		printBests(out, result.Bests())
	default:
		infos := result.Entries()
		if *current {
			infos = result.Current()
		}
		printTable(out, filterExercise(infos, *exercise))
	}
	return nil
}

func filterExercise(infos []pr.Info, name string) []pr.Info {
	if name == "" {
		return infos
	}
	out := make([]pr.Info, 0, len(infos))
	for _, info := range infos {
		if info.Exercise == name {
			out = append(out, info)
		}
	}
	return out
}
