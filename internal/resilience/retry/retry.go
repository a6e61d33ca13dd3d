// Package retry re-runs a failing call with exponential backoff and jitter.
// Upstream HTTP failures are described with HTTPError so the classifier can
// tell a 503 (retry) from a 401 (give up), and honour Retry-After.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"syscall"
	"time"
)

type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// JitterFraction adds up to this share of the delay at random, 0 to 1.
	JitterFraction float64
	// RetryIf decides whether an error is worth another attempt. Nil means IsRetryable.
	RetryIf func(error) bool
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// FeedFetchConfig is used per RSS feed.
func FeedFetchConfig() Config {
	c := DefaultConfig()
	c.MaxDelay = 10 * time.Second
	return c
}

// NewsAPIConfig starts slower: the free tier answers 429 quickly.
func NewsAPIConfig() Config {
	c := DefaultConfig()
	c.InitialDelay = 2 * time.Second
	c.MaxDelay = 10 * time.Second
	return c
}

// IndexStartupConfig is used for the search index sync at process start:
// three attempts with a fixed five second pause, retrying anything but
// cancellation since the index may still be booting.
func IndexStartupConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 5 * time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   1.0,
		RetryIf:      RetryUnlessCanceled,
	}
}

// RetryUnlessCanceled retries every error except context cancellation and
// deadline expiry.
func RetryUnlessCanceled(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// WithBackoff calls fn until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. A non-retryable error is returned as is; exhausting
// the attempts wraps the last error. An HTTPError carrying RetryAfter
// stretches the next pause up to MaxDelay.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	retryable := cfg.RetryIf
	if retryable == nil {
		retryable = IsRetryable
	}
	delay := cfg.InitialDelay

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !retryable(err) {
			slog.Debug("non-retryable error, giving up",
				slog.Int("attempt", attempt),
				slog.Any("error", err))
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.RetryAfter > wait {
			wait = min(httpErr.RetryAfter, cfg.MaxDelay)
		}
		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		if werr := sleep(ctx, wait); werr != nil {
			return fmt.Errorf("retry aborted: %w", werr)
		}
		delay = addJitter(min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay), cfg.JitterFraction)
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRetryable treats timeouts, refused or reset connections, 5xx, 408 and
// 429 as transient. Cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT, syscall.ENETUNREACH} {
		if errors.Is(err, errno) {
			return true
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch code := httpErr.StatusCode; {
		case code >= 500 && code < 600:
			return true
		case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
			return true
		}
	}
	return false
}

// HTTPError is a non-2xx upstream response.
type HTTPError struct {
	StatusCode int
	Message    string
	// RetryAfter is the parsed Retry-After header, zero when absent.
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func addJitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	fraction = min(fraction, 1.0)
	// #nosec G404 -- jitter does not need cryptographic randomness.
	return d + time.Duration(rand.Float64()*float64(d)*fraction)
}
