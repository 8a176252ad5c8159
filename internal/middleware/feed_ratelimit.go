package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/manoj0727/Nexify-server/pkg/clientip"
	"golang.org/x/time/rate"
)

// Feed read rate limit: per-IP, different limits for auth vs anonymous.
// Auth: 30 req/min, burst 20. Anonymous: 10 req/min, burst 5.
// Prevents 429 from normal scrolling while blocking scraping.

const (
	feedAuthRPS        = 0.5  // 30/min
	feedAuthBurst      = 20
	feedAnonRPS        = 0.17 // ~10/min
	feedAnonBurst      = 5
	feedCleanupMin     = 5 * time.Minute
	feedLimiterTTL     = 30 * time.Minute
	feedPathPrefix     = "/api/posts"
	communitiesPrefix  = "/api/communities"
)

type feedLimiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

var (
	feedEntries   = make(map[string]*feedLimiterEntry)
	feedEntriesMu sync.Mutex
	feedCleanup   bool
)

func getFeedLimiter(ip string, authenticated bool) *rate.Limiter {
	key := "anon:" + ip
	if authenticated {
		key = "auth:" + ip
	}

	feedEntriesMu.Lock()
	defer feedEntriesMu.Unlock()
	startFeedCleanupOnce()

	e, ok := feedEntries[key]
	if !ok {
		rps, burst := feedAnonRPS, feedAnonBurst
		if authenticated {
			rps, burst = feedAuthRPS, feedAuthBurst
		}
		e = &feedLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rps), burst),
			lastUse: time.Now(),
		}
		feedEntries[key] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startFeedCleanupOnce() {
	if feedCleanup {
		return
	}
	feedCleanup = true
	go func() {
		ticker := time.NewTicker(feedCleanupMin)
		defer ticker.Stop()
		for range ticker.C {
			feedEntriesMu.Lock()
			now := time.Now()
			for k, e := range feedEntries {
				if now.Sub(e.lastUse) > feedLimiterTTL {
					delete(feedEntries, k)
				}
			}
			feedEntriesMu.Unlock()
		}
	}()
}

func feedIsAuthenticated(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && len(strings.TrimPrefix(auth, "Bearer ")) > 0
}

// FeedRateLimit applies rate limiting only to GET requests on the post and
// community listing routes. Returns 429 with headers when exceeded.
func FeedRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		readPath := strings.HasPrefix(r.URL.Path, feedPathPrefix) ||
			strings.HasPrefix(r.URL.Path, communitiesPrefix)
		if r.Method != http.MethodGet || !readPath {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientip.RealClientIP(r)
		auth := feedIsAuthenticated(r)
		limiter := getFeedLimiter(ip, auth)

		limit := feedAnonBurst
		if auth {
			limit = feedAuthBurst
		}

		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Too many feed requests. Please slow down."}`))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-1)) // Best-effort for debugging
		next.ServeHTTP(w, r)
	})
}
