// internal/server/throttle.go
package server

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"libraryql/internal/telemetry"
)

// throttle allows each client limit requests per ttl, keyed by remote IP.
// Clients idle for longer than ttl are forgotten.
type throttle struct {
	mu        sync.Mutex
	clients   map[string]*client
	every     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
	metrics   *telemetry.Metrics
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newThrottle(limit int, ttl time.Duration, metrics *telemetry.Metrics) *throttle {
	return &throttle{
		clients: make(map[string]*client),
		every:   rate.Every(ttl / time.Duration(limit)),
		burst:   limit,
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics,
	}
}

func (t *throttle) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) > t.ttl {
		for k, c := range t.clients {
			if now.Sub(c.lastSeen) > t.ttl {
				delete(t.clients, k)
			}
		}
		t.lastSweep = now
	}

	c, ok := t.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(t.every, t.burst)}
		t.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (t *throttle) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.allow(clientKey(r)) {
			t.metrics.Throttled()
			w.Header().Set("Retry-After", retryAfter(t.ttl, t.burst))
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"statusCode": http.StatusTooManyRequests,
				"message":    "Too Many Requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfter(ttl time.Duration, burst int) string {
	secs := int((ttl/time.Duration(burst) + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
