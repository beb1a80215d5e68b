package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// PerIPLimiter is an in-memory token bucket keyed by client IP. It guards
// the login endpoint against password guessing; for multi-instance
// deployments move the state to Redis.
type PerIPLimiter struct {
	perMinute int
	mu        sync.Mutex
	buckets   map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewPerIPLimiter creates a limiter allowing perMinute requests per client,
// with a burst of the same size.
func NewPerIPLimiter(perMinute int) *PerIPLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &PerIPLimiter{
		perMinute: perMinute,
		buckets:   make(map[string]*bucket),
	}
}

// Middleware rejects over-limit clients with 429.
func (l *PerIPLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, slow down"})
			return
		}
		c.Next()
	}
}

func (l *PerIPLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.perMinute - 1, last: now}
		return true
	}
	refill := int(now.Sub(b.last).Minutes() * float64(l.perMinute))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.perMinute {
			b.tokens = l.perMinute
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}
