package middlewares

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/futarchy-engine/internal/common"
	"github.com/hxuan190/futarchy-engine/internal/http/httputil"
)

// RateLimiter is a per-client-IP token bucket refilled at rate tokens per
// second up to burst.
type RateLimiter struct {
	mu       sync.Mutex
	rate     float64
	burst    float64
	tokens   map[string]float64
	lastTime map[string]time.Time
	now      func() time.Time
}

func NewRateLimiter(rate, burst int) *RateLimiter {
	return &RateLimiter{
		rate:     float64(rate),
		burst:    float64(burst),
		tokens:   make(map[string]float64),
		lastTime: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow takes one token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if _, exists := rl.tokens[key]; !exists {
		rl.tokens[key] = rl.burst
		rl.lastTime[key] = now
	}

	elapsed := now.Sub(rl.lastTime[key])
	rl.lastTime[key] = now

	rl.tokens[key] += elapsed.Seconds() * rl.rate
	if rl.tokens[key] > rl.burst {
		rl.tokens[key] = rl.burst
	}

	if rl.tokens[key] < 1 {
		return false
	}
	rl.tokens[key]--
	return true
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			he := common.HTTPErrorTooManyRequests("")
			httputil.Error(c, he.StatusCode, he.Message)
			c.Abort()
			return
		}
		c.Next()
	}
}
