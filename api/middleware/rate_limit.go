package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window request counter keyed by client.
type RateLimiter struct {
	limit   int
	window  time.Duration
	clients map[string]*clientWindow
	mu      sync.Mutex
}

type clientWindow struct {
	start time.Time
	count int
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientWindow),
	}
}

// Allow counts one request for key. A non-positive limit allows everything.
func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw, ok := rl.clients[key]
	if !ok || now.Sub(cw.start) >= rl.window {
		rl.clients[key] = &clientWindow{start: now, count: 1}
		rl.evict(now)
		return true
	}
	if cw.count >= rl.limit {
		return false
	}
	cw.count++
	return true
}

func (rl *RateLimiter) evict(now time.Time) {
	for key, cw := range rl.clients {
		if now.Sub(cw.start) >= rl.window {
			delete(rl.clients, key)
		}
	}
}

func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": limiter.window.Seconds(),
			})
			return
		}
		c.Next()
	}
}
