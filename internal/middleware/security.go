package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pulsefit/pulsefit-backend/pkg/clientip"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// --- Global rate limiting (per-IP, 1/s, burst 10) ---

var (
	globalEntries    = make(map[string]*limiterEntry)
	globalEntriesMu  sync.Mutex
	globalCleanupRun bool
)

const (
	globalRateLimitRPS    = 1
	globalRateLimitBurst  = 10
	globalCleanupInterval = 5 * time.Minute
	globalLimiterTTL      = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

func getGlobalLimiter(ip string) *rate.Limiter {
	globalEntriesMu.Lock()
	defer globalEntriesMu.Unlock()
	startGlobalCleanupOnce()
	e, ok := globalEntries[ip]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(globalRateLimitRPS), globalRateLimitBurst),
			lastUse: time.Now(),
		}
		globalEntries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startGlobalCleanupOnce() {
	if globalCleanupRun {
		return
	}
	globalCleanupRun = true
	go func() {
		ticker := time.NewTicker(globalCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			globalEntriesMu.Lock()
			now := time.Now()
			for ip, e := range globalEntries {
				if now.Sub(e.lastUse) > globalLimiterTTL {
					delete(globalEntries, ip)
				}
			}
			globalEntriesMu.Unlock()
		}
	}()
}

// GlobalRateLimit limits each IP to 1 req/s, burst 10. Returns 429 when exceeded.
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.RealClientIP(r)
		if !getGlobalLimiter(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too many requests. Please slow down."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Generation route rate limiting (1 req/5s, burst 2) ---
//
// The generate endpoint fans out to a billable AI provider, so it gets a
// much stricter per-IP limit than the rest of the API.

var (
	generatePaths = map[string]bool{
		"/api/generate-workout": true,
	}
	generateEntries    = make(map[string]*limiterEntry)
	generateEntriesMu  sync.Mutex
	generateCleanupRun bool
)

const (
	generateRateLimitEvery  = 5 * time.Second
	generateRateLimitBurst  = 2
	generateCleanupInterval = 5 * time.Minute
	generateLimiterTTL      = 30 * time.Minute
)

func getGenerateLimiter(ip string) *rate.Limiter {
	generateEntriesMu.Lock()
	defer generateEntriesMu.Unlock()
	startGenerateCleanupOnce()
	e, ok := generateEntries[ip]
	if !ok {
		e = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(generateRateLimitEvery), generateRateLimitBurst),
			lastUse: time.Now(),
		}
		generateEntries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startGenerateCleanupOnce() {
	if generateCleanupRun {
		return
	}
	generateCleanupRun = true
	go func() {
		ticker := time.NewTicker(generateCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			generateEntriesMu.Lock()
			now := time.Now()
			for ip, e := range generateEntries {
				if now.Sub(e.lastUse) > generateLimiterTTL {
					delete(generateEntries, ip)
				}
			}
			generateEntriesMu.Unlock()
		}
	}()
}

// GenerateRateLimit applies the stricter limit to the generation route only. Use after GlobalRateLimit.
func GenerateRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !generatePaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientip.RealClientIP(r)
		if !getGenerateLimiter(ip).Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too many generation requests. Please try again shortly."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → GlobalRateLimit → GenerateRateLimit.
func ProductionSecurity() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		GlobalRateLimit,
		GenerateRateLimit,
	}
}
