package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"news-aggregator/internal/handler/http/respond"
)

var rateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_rate_limited_total",
		Help: "Requests rejected with 429 by limiter name",
	},
	[]string{"limiter"},
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-IP token bucket. Idle entries are swept on access so
// the map stays bounded by recently active clients.
type RateLimiter struct {
	name      string
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	extractor IPExtractor
	now       func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter allows `requests` per `window` with bursts up to `requests`.
func NewRateLimiter(name string, requests int, window time.Duration, extractor IPExtractor) *RateLimiter {
	if extractor == nil {
		extractor = RemoteAddrExtractor{}
	}
	return &RateLimiter{
		name:      name,
		limit:     rate.Every(window / time.Duration(requests)),
		burst:     requests,
		idleTTL:   2 * window,
		extractor: extractor,
		now:       time.Now,
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, err := rl.extractor.ExtractIP(r)
		if err != nil {
			slog.Warn("rate limiter: cannot determine client IP",
				slog.String("error", err.Error()),
				slog.String("remote_addr", r.RemoteAddr))
			ip = r.RemoteAddr
		}
		lim := rl.get(ip)
		if !lim.Allow() {
			rateLimitedTotal.WithLabelValues(rl.name).Inc()
			retry := time.Duration(float64(time.Second) / float64(rl.limit))
			w.Header().Set("Retry-After", strconv.Itoa(max(1, int(retry.Seconds()))))
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{"detail": "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) get(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > rl.idleTTL {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.idleTTL {
				delete(rl.visitors, k)
			}
		}
		rl.lastSweep = now
	}

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// ActiveKeys reports how many clients are currently tracked.
func (rl *RateLimiter) ActiveKeys() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}
