// Package main re-runs the keyword categorizer over stored articles.
// Usage: news-recategorize [--all] [--output json] [--timeout 10m]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	pgRepo "news-aggregator/internal/infra/adapter/persistence/postgres"
	liteRepo "news-aggregator/internal/infra/adapter/persistence/sqlite"
	"news-aggregator/internal/infra/db"
	"news-aggregator/internal/observability/logging"
	"news-aggregator/internal/repository"
	artUC "news-aggregator/internal/usecase/article"
	"news-aggregator/internal/usecase/categorize"
)

const usage = "Usage: news-recategorize [--all] [--output json] [--timeout 10m]"

type options struct {
	all     bool
	output  string
	timeout time.Duration
}

type resultOutput struct {
	Mode      string `json:"mode"`
	Scanned   int    `json:"scanned"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("news-recategorize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.all, "all", false, "Recategorize every article, not only those without a category")
	fs.StringVar(&opts.output, "output", "text", "Output format: text or json")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Minute, "Abort after this long")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.output != "text" && opts.output != "json" {
		return opts, fmt.Errorf("invalid output '%s' (must be 'text' or 'json')", opts.output)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n%s\n", err, usage)
		}
		os.Exit(2)
	}

	_ = godotenv.Load()
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	driver := db.DriverFromEnv()
	database, err := db.Open(driver)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database, driver); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		_ = database.Close()
		os.Exit(1)
	}

	var repo repository.ArticleRepository
	if driver == db.DriverSQLite {
		repo = liteRepo.NewArticleRepo(database)
	} else {
		repo = pgRepo.NewArticleRepo(database)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)

	err = run(ctx, repo, categorize.LoadFromEnv(), opts, os.Stdout)
	cancel()
	stop()
	if cerr := database.Close(); cerr != nil {
		logger.Error("failed to close database", slog.Any("error", cerr))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run recategorizes through repo and writes the summary to w.
func run(ctx context.Context, repo repository.ArticleRepository, c artUC.Categorizer, opts options, w io.Writer) error {
	mode := "missing"
	if opts.all {
		mode = "all"
	}
	slog.InfoContext(ctx, "recategorizing articles", slog.String("mode", mode))

	svc := &artUC.Service{Repo: repo}
	res, err := svc.Recategorize(ctx, c, opts.all)
	if err != nil {
		slog.ErrorContext(ctx, "recategorize failed",
			slog.Int("updated_before_failure", res.Updated),
			slog.Any("error", err))
		return fmt.Errorf("recategorize failed: %w", err)
	}

	return writeResult(w, opts.output, resultOutput{
		Mode:      mode,
		Scanned:   res.Scanned,
		Updated:   res.Updated,
		Unchanged: res.Unchanged,
	})
}

func writeResult(w io.Writer, format string, out resultOutput) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return nil
	}
	_, err := fmt.Fprintf(w, "Recategorized %s articles\n  scanned:   %d\n  updated:   %d\n  unchanged: %d\n",
		out.Mode, out.Scanned, out.Updated, out.Unchanged)
	return err
}
