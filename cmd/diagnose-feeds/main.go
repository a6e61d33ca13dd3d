// Package main checks every configured RSS feed and reports which ones the
// ingestion pipeline can actually read.
// Usage: news-diagnose-feeds [--output json] [--timeout 30s] [feed URL ...]
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmcdole/gofeed"

	"news-aggregator/internal/infra/provider"
)

const (
	StatusOK         = "OK"
	StatusRedirect   = "REDIRECT"
	StatusEmpty      = "EMPTY"
	StatusTimeout    = "TIMEOUT"
	StatusHTTPError  = "HTTP_ERROR"
	StatusParseError = "PARSE_ERROR"
	StatusReadError  = "READ_ERROR"

	maxFeedBytes = 10 << 20
	maxRedirects = 10
)

// FeedDiagnostic is the outcome for one feed URL.
type FeedDiagnostic struct {
	URL          string `json:"url"`
	Status       string `json:"status"`
	HTTPCode     int    `json:"http_code,omitempty"`
	FeedType     string `json:"feed_type,omitempty"`
	Title        string `json:"title,omitempty"`
	ItemCount    int    `json:"item_count"`
	LatestDate   string `json:"latest_date,omitempty"`
	RedirectURL  string `json:"redirect_url,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Healthy reports whether ingestion would get articles from the feed.
func (d FeedDiagnostic) Healthy() bool {
	return d.Status == StatusOK || d.Status == StatusRedirect
}

func main() {
	var (
		outputFormat string
		timeout      time.Duration
		pause        time.Duration
	)
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Per-feed timeout")
	flag.DurationVar(&pause, "pause", 500*time.Millisecond, "Pause between feeds")
	flag.Parse()

	_ = godotenv.Load()
	cfg := provider.LoadRSSConfig()
	feeds := cfg.Feeds
	if flag.NArg() > 0 {
		feeds = flag.Args()
	}

	client := &http.Client{
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}

	fmt.Fprintf(os.Stderr, "Diagnosing %d feeds...\n", len(feeds))
	results := make([]FeedDiagnostic, 0, len(feeds))
	for i, u := range feeds {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", i+1, len(feeds), u)
		results = append(results, diagnoseFeed(context.Background(), client, u, cfg.UserAgent, timeout))
		if i < len(feeds)-1 {
			time.Sleep(pause)
		}
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode output: %v\n", err)
			os.Exit(1)
		}
	} else {
		writeReport(os.Stdout, results)
	}

	for _, d := range results {
		if !d.Healthy() {
			os.Exit(1)
		}
	}
}

func diagnoseFeed(ctx context.Context, client *http.Client, feedURL, userAgent string, timeout time.Duration) FeedDiagnostic {
	diag := FeedDiagnostic{URL: feedURL}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		diag.Status = StatusHTTPError
		diag.ErrorMessage = err.Error()
		return diag
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := client.Do(req)
	diag.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			diag.Status = StatusTimeout
			diag.ErrorMessage = fmt.Sprintf("request timeout after %v", timeout)
		} else {
			diag.Status = StatusHTTPError
			diag.ErrorMessage = err.Error()
		}
		return diag
	}
	defer func() { _ = resp.Body.Close() }()

	diag.HTTPCode = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		diag.Status = StatusHTTPError
		diag.ErrorMessage = resp.Status
		return diag
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		diag.Status = StatusReadError
		diag.ErrorMessage = err.Error()
		return diag
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		diag.Status = StatusParseError
		diag.ErrorMessage = fmt.Sprintf("%v (preview: %s)", err, preview(body))
		return diag
	}
	diag.FeedType = feed.FeedType
	diag.Title = feed.Title
	diag.ItemCount = len(feed.Items)
	if latest := latestItem(feed.Items); latest != nil {
		diag.LatestDate = latest.UTC().Format(time.RFC3339)
	}

	switch {
	case diag.ItemCount == 0:
		diag.Status = StatusEmpty
		diag.ErrorMessage = "feed has no items"
	case resp.Request.URL.String() != feedURL:
		diag.Status = StatusRedirect
		diag.RedirectURL = resp.Request.URL.String()
	default:
		diag.Status = StatusOK
	}
	return diag
}

func latestItem(items []*gofeed.Item) *time.Time {
	var latest *time.Time
	for _, it := range items {
		t := it.PublishedParsed
		if t == nil {
			t = it.UpdatedParsed
		}
		if t != nil && (latest == nil || t.After(*latest)) {
			latest = t
		}
	}
	return latest
}

func preview(body []byte) string {
	const n = 200
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}

func writeReport(w io.Writer, results []FeedDiagnostic) {
	counts := map[string]int{}
	healthy := 0
	for _, d := range results {
		counts[d.Status]++
		if d.Healthy() {
			healthy++
		}
	}

	fmt.Fprintln(w, "===============================================")
	fmt.Fprintln(w, "RSS Feed Diagnostic Report")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Total feeds: %d\n", len(results))
	fmt.Fprintln(w, "===============================================")
	fmt.Fprintf(w, "Working: %d  Broken: %d\n\n", healthy, len(results)-healthy)

	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	fmt.Fprintln(w, "STATUS BREAKDOWN:")
	for _, s := range statuses {
		fmt.Fprintf(w, "  %s: %d\n", s, counts[s])
	}
	fmt.Fprintln(w)

	for _, d := range results {
		fmt.Fprintf(w, "[%s] %s\n", d.Status, d.URL)
		if d.Healthy() {
			fmt.Fprintf(w, "  Type: %s | Items: %d | Latest: %s\n", d.FeedType, d.ItemCount, d.LatestDate)
			fmt.Fprintf(w, "  Response: %dms | HTTP: %d\n", d.ResponseTime, d.HTTPCode)
			if d.RedirectURL != "" {
				fmt.Fprintf(w, "  Redirected to: %s\n", d.RedirectURL)
			}
		} else {
			fmt.Fprintf(w, "  Error: %s\n", d.ErrorMessage)
		}
	}
}
