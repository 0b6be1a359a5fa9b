package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/zeusync/fleetsim/internal/core/observability/log"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogging logs every request at debug level and failed ones at warn.
func requestLogging(logger log.Log, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		fields := []log.Field{
			log.String("method", r.Method),
			log.String("path", r.URL.Path),
			log.Int("status", rec.status),
			log.Duration("duration", time.Since(start)),
			log.String("remote_addr", r.RemoteAddr),
		}
		if rec.status >= http.StatusInternalServerError {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Debug("request handled", fields...)
	})
}

type clientRateLimit struct {
	count  int
	window time.Time
}

// rateLimiter allows limit requests per window for each remote host.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	logger log.Log

	mu        sync.Mutex
	clients   map[string]*clientRateLimit
	lastSweep time.Time
}

func newRateLimiter(limit int, window time.Duration, logger log.Log) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		logger:  logger,
		clients: make(map[string]*clientRateLimit),
	}
}

func (l *rateLimiter) allow(client string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.window {
		l.sweep(now)
	}

	c, ok := l.clients[client]
	if !ok || now.Sub(c.window) > l.window {
		c = &clientRateLimit{window: now}
		l.clients[client] = c
	}
	if c.count >= l.limit {
		return false
	}
	c.count++
	return true
}

// sweep drops clients whose window has expired. Callers hold l.mu.
func (l *rateLimiter) sweep(now time.Time) {
	for host, c := range l.clients {
		if now.Sub(c.window) > l.window {
			delete(l.clients, host)
		}
	}
	l.lastSweep = now
}

func (l *rateLimiter) middleware(next http.Handler) http.Handler {
	if l == nil || l.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !l.allow(host) {
			l.logger.Warn("rate limit exceeded",
				log.String("client", host),
				log.Int("limit", l.limit),
			)
			writeError(w, http.StatusTooManyRequests, ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
