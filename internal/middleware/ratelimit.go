package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const visitorIdle = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	mu          sync.Mutex
	visitors    map[string]*visitor
	lastCleanup time.Time
	now         func() time.Time
}

// NewRateLimiter allows rps requests per second per client with the given
// burst. rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.rps > 0
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}
	now := rl.now()

	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	if now.Sub(rl.lastCleanup) > visitorIdle {
		for k, other := range rl.visitors {
			if now.Sub(other.lastSeen) > visitorIdle {
				delete(rl.visitors, k)
			}
		}
		rl.lastCleanup = now
	}
	rl.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Middleware rejects clients over their budget with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "too many requests",
				"error":   "rate_limited",
			})
			return
		}
		c.Next()
	}
}
