package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
)

// idleTTL is how long a caller's bucket survives without requests. A bucket
// idle that long has refilled, so dropping it changes nothing for the caller.
const idleTTL = 10 * time.Minute

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter hands out one token bucket per caller. Idle buckets are
// pruned lazily, at most once per idleTTL.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per caller, with bursts up to
// perMinute. perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{limiters: make(map[string]*limiterEntry), now: time.Now}
	rl.lastPrune = rl.now()
	if perMinute <= 0 {
		rl.limit = rate.Inf
		return rl
	}
	rl.limit = rate.Every(time.Minute / time.Duration(perMinute))
	rl.burst = perMinute
	return rl
}

// Allow spends one token of key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	now := rl.now()
	if now.Sub(rl.lastPrune) >= idleTTL {
		rl.prune(now)
	}
	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.seen = now
	rl.mu.Unlock()
	return e.lim.AllowN(now, 1)
}

// Len reports how many caller buckets are currently held.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// prune drops buckets idle for idleTTL or longer. Callers hold rl.mu.
func (rl *RateLimiter) prune(now time.Time) {
	for k, e := range rl.limiters {
		if now.Sub(e.seen) >= idleTTL {
			delete(rl.limiters, k)
		}
	}
	rl.lastPrune = now
}

// Middleware keys buckets by authenticated user, falling back to client IP.
// It must run after the auth middleware.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if id, ok := auth.IdentityFrom(c); ok && id.Authenticated() {
			key = "user:" + id.UserID
		}
		if !rl.Allow(key) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "too many revalidation requests"})
			return
		}
		c.Next()
	}
}
