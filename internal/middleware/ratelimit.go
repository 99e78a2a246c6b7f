package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ailat-kz/aaoifi-chat/backend/pkg/utils"
	"github.com/gin-gonic/gin"
)

// RateLimiter is a per-IP fixed-window limiter held in memory.
type RateLimiter struct {
	visitors map[string]*Visitor
	mu       sync.Mutex
	rate     int           // requests per window
	window   time.Duration
	cleanup  time.Duration // cleanup interval
	now      func() time.Time
}

type Visitor struct {
	windowStart time.Time
	lastSeen    time.Time
	count       int
}

const rateLimitMessage = "Rate limit exceeded"

// NewRateLimiter allows rate requests per minute per client IP. Stale
// visitors are dropped until ctx is done.
func NewRateLimiter(ctx context.Context, rate int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*Visitor),
		rate:     rate,
		window:   time.Minute,
		cleanup:  time.Minute,
		now:      time.Now,
	}

	go rl.cleanupVisitors(ctx)

	return rl
}

// RateLimit rejects a client with 429 once it exceeds its allowance. A
// non-positive rate disables limiting.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.rate <= 0 || rl.allow(c.ClientIP()) {
			c.Next()
			return
		}
		c.Header("Retry-After", "60")
		c.Abort()
		utils.TextResponse(c, http.StatusTooManyRequests, rateLimitMessage)
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists || now.Sub(v.windowStart) >= rl.window {
		rl.visitors[ip] = &Visitor{windowStart: now, lastSeen: now, count: 1}
		return true
	}

	v.lastSeen = now
	if v.count >= rl.rate {
		return false
	}
	v.count++
	return true
}

// cleanupVisitors removes old visitor entries
func (rl *RateLimiter) cleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		now := rl.now()
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if now.Sub(v.lastSeen) > 5*rl.window {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}
