// Package circuitbreaker guards calls to upstreams (NewsAPI, RSS feeds,
// article pages, the search index) with sony/gobreaker. Each breaker
// exports its state as circuit_breaker_state{name}.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var stateGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "circuit_breaker_state",
	Help: "Circuit breaker state by name (0 closed, 1 half-open, 2 open)",
}, []string{"name"})

// Config describes when a breaker trips and how it recovers.
type Config struct {
	Name string
	// MaxRequests is the number of probes let through while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counters; zero never resets.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// The breaker trips once at least MinRequests calls were seen and the
	// failure ratio reaches FailureThreshold.
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          time.Minute,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// NewsAPIConfig backs off for two minutes: the free tier answers 429 for a
// while once exhausted.
func NewsAPIConfig() Config {
	c := DefaultConfig("newsapi")
	c.Interval = time.Minute
	c.Timeout = 2 * time.Minute
	return c
}

// FeedFetchConfig is shared by every RSS feed, so it tolerates a few dead
// feeds before opening.
func FeedFetchConfig() Config {
	c := DefaultConfig("feed-fetch")
	c.MaxRequests = 5
	c.Interval = time.Minute
	c.Timeout = 2 * time.Minute
	c.FailureThreshold = 0.7
	c.MinRequests = 10
	return c
}

// ContentFetchConfig covers arbitrary article pages, which fail for many
// unrelated reasons.
func ContentFetchConfig() Config {
	c := DefaultConfig("content-fetch")
	c.Interval = time.Minute
	c.Timeout = 5 * time.Minute
	c.FailureThreshold = 0.8
	return c
}

// SearchIndexConfig opens only when every recent call failed: the index is
// a single dependency and partial failure is unusual.
func SearchIndexConfig() Config {
	c := DefaultConfig("search-index")
	c.MaxRequests = 1
	c.Timeout = 30 * time.Second
	c.FailureThreshold = 1.0
	c.MinRequests = 3
	return c
}

type CircuitBreaker struct {
	cb   *gobreaker.CircuitBreaker
	name string
}

func New(cfg Config) *CircuitBreaker {
	stateGauge.WithLabelValues(cfg.Name).Set(stateValue(gobreaker.StateClosed))
	return &CircuitBreaker{
		name: cfg.Name,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        cfg.Name,
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				if c.Requests < cfg.MinRequests {
					return false
				}
				return float64(c.TotalFailures)/float64(c.Requests) >= cfg.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				stateGauge.WithLabelValues(name).Set(stateValue(to))
				slog.Warn("circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}),
	}
}

// Execute runs fn unless the breaker is open, in which case it returns
// gobreaker.ErrOpenState without calling fn.
func (b *CircuitBreaker) Execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

func (b *CircuitBreaker) State() gobreaker.State { return b.cb.State() }

func (b *CircuitBreaker) Name() string { return b.name }

func (b *CircuitBreaker) IsOpen() bool { return b.cb.State() == gobreaker.StateOpen }

// Do is Execute with a typed result.
func Do[T any](b *CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

// Rejected reports whether err came from the breaker itself rather than from
// the guarded call.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
