package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/manoj0727/Nexify-server/pkg/clientip"
)

// SecurityHeaders sets the standard hardening headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Content-Security-Policy", "default-src 'self'")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck rejects requests whose Host does not match allowedHost, the
// bare hostname without scheme or port. An empty allowedHost disables
// the check.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	allowedHost = strings.TrimSpace(allowedHost)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			host := r.Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			if !strings.EqualFold(strings.TrimSpace(host), allowedHost) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ipLimiterPool hands out a token-bucket limiter per IP and evicts
// buckets that have gone quiet so the map cannot grow without bound.
type ipLimiterPool struct {
	mu      sync.Mutex
	entries map[string]*ipLimiter
	limit   rate.Limit
	burst   int
	once    sync.Once
}

type ipLimiter struct {
	limiter *rate.Limiter
	lastUse time.Time
}

const (
	limiterIdleTTL       = 30 * time.Minute
	limiterSweepInterval = 5 * time.Minute
)

func newIPLimiterPool(limit rate.Limit, burst int) *ipLimiterPool {
	return &ipLimiterPool{
		entries: make(map[string]*ipLimiter),
		limit:   limit,
		burst:   burst,
	}
}

func (p *ipLimiterPool) allow(ip string) bool {
	p.once.Do(func() { go p.sweep() })

	p.mu.Lock()
	e, ok := p.entries[ip]
	if !ok {
		e = &ipLimiter{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.entries[ip] = e
	}
	e.lastUse = time.Now()
	limiter := e.limiter
	p.mu.Unlock()

	return limiter.Allow()
}

func (p *ipLimiterPool) sweep() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-limiterIdleTTL)
		p.mu.Lock()
		for ip, e := range p.entries {
			if e.lastUse.Before(cutoff) {
				delete(p.entries, ip)
			}
		}
		p.mu.Unlock()
	}
}

// Global limit: 1 req/s with burst 10 per IP.
var globalLimiters = newIPLimiterPool(rate.Limit(1), 10)

// Login limit: 1 req per 5s with burst 2 per IP, credential routes only.
var loginLimiters = newIPLimiterPool(rate.Every(5*time.Second), 2)

var loginPaths = map[string]bool{
	"/api/auth/signin":  true,
	"/api/auth/signup":  true,
	"/api/admin/signin": true,
}

func tooManyRequests(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}

// GlobalRateLimit caps every IP at the global rate. Returns 429 when
// exceeded.
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !globalLimiters.allow(clientip.RealClientIP(r)) {
			tooManyRequests(w, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRateLimit applies the stricter credential-route limit. Use after
// GlobalRateLimit.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if loginPaths[r.URL.Path] && !loginLimiters.allow(clientip.RealClientIP(r)) {
			tooManyRequests(w, "Too many login attempts. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity is the middleware chain for production deploys:
// security headers, strict host check, then both rate limits.
func ProductionSecurity(allowedHost string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit,
		LoginRateLimit,
	}
}
