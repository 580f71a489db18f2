package httpx

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"authcore/internal/audit"
)

// RateLimitRule is a path-scoped override of the global limit. Paths match
// by prefix; the first configured rule with a match wins.
type RateLimitRule struct {
	Requests int
	Window   time.Duration
	Paths    []string
}

// RateLimitConfig configures the middleware. The global limit is
// RequestsPerMinute+BurstSize requests over a 60s window.
type RateLimitConfig struct {
	RequestsPerMinute int // default 60
	BurstSize         int // default 10
	ExemptPaths       []string
	Rules             []RateLimitRule
}

type rateEvent struct {
	at time.Time
	n  int
}

// RateLimit counts weighted events per (client key, scope) in a sliding
// window. Counters are process-local and advisory: slight over/under
// counting at window edges is acceptable, and state is not shared across
// instances. Multi-process deployments get per-process limits.
type RateLimit struct {
	cfg RateLimitConfig
	now func() time.Time

	mu          sync.Mutex
	events      map[string][]rateEvent
	lastCleanup time.Time
}

const rateCleanupInterval = time.Minute

func NewRateLimit(cfg RateLimitConfig) *RateLimit {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 10
	}
	rl := &RateLimit{
		cfg:    cfg,
		now:    time.Now,
		events: make(map[string][]rateEvent),
	}
	rl.lastCleanup = rl.now()
	return rl
}

func (rl *RateLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rl.cleanupOldEntries()

		if rl.isExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		key, limit, window := rl.resolveScope(r)

		allowed, retryAfter := rl.allow(key, limit, window)
		if !allowed {
			audit.Log(audit.RateLimited, audit.Record{
				IP:     ClientIP(r),
				Detail: r.Method + " " + r.URL.Path,
			})
			JSONRetryAfter(w, retryAfter, "Too many requests. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimit) isExempt(path string) bool {
	for _, exempt := range rl.cfg.ExemptPaths {
		if strings.HasPrefix(path, exempt) {
			return true
		}
	}
	return false
}

// resolveScope picks the most specific rule for the request path and
// derives the counter key from the client identifier plus rule scope.
func (rl *RateLimit) resolveScope(r *http.Request) (key string, limit int, window time.Duration) {
	ip := ClientIP(r)

	for _, rule := range rl.cfg.Rules {
		for _, p := range rule.Paths {
			if strings.HasPrefix(r.URL.Path, p) {
				return ip + ":" + rule.Paths[0], rule.Requests, rule.Window
			}
		}
	}
	return ip + ":global", rl.cfg.RequestsPerMinute + rl.cfg.BurstSize, time.Minute
}

// allow counts in-window events for the key and either records the request
// or rejects it with a retry-after hint in whole seconds.
func (rl *RateLimit) allow(key string, limit int, window time.Duration) (bool, int) {
	now := rl.now()
	cutoff := now.Add(-window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	events := rl.events[key]

	count := 0
	var oldest time.Time
	for _, ev := range events {
		if ev.at.After(cutoff) {
			count += ev.n
			if oldest.IsZero() || ev.at.Before(oldest) {
				oldest = ev.at
			}
		}
	}

	if count >= limit {
		// If the window is observed empty here (a benign race between
		// counting and this read), fall back to the full window.
		retryAfter := int(window.Seconds())
		if !oldest.IsZero() {
			retryAfter = int(oldest.Add(window).Sub(now).Seconds()) + 1
		}
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter
	}

	rl.events[key] = append(events, rateEvent{at: now, n: 1})
	return true, 0
}

// cleanupOldEntries is amortized housekeeping: at most once per interval,
// drop events older than the longest configured window so memory stays
// bounded by recent traffic.
func (rl *RateLimit) cleanupOldEntries() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastCleanup) < rateCleanupInterval {
		return
	}
	rl.lastCleanup = now

	maxWindow := time.Minute
	for _, rule := range rl.cfg.Rules {
		if rule.Window > maxWindow {
			maxWindow = rule.Window
		}
	}
	cutoff := now.Add(-maxWindow)

	for key, events := range rl.events {
		kept := events[:0]
		for _, ev := range events {
			if ev.at.After(cutoff) {
				kept = append(kept, ev)
			}
		}
		if len(kept) == 0 {
			delete(rl.events, key)
			continue
		}
		rl.events[key] = kept
	}
}

// ClientIP resolves the client identifier for rate limiting and audit
// logging: first X-Forwarded-For hop, then X-Real-IP, then the socket
// address. First match wins.
func ClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}
	return "unknown"
}
