package middleware

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	defaultAuthRequestsPerMinute = 100
	defaultAuthBurst             = 50
	limiterIdleEviction          = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// authLimiters tracks one token bucket per client IP for the public auth
// endpoints. Entries idle past limiterIdleEviction are dropped on the next
// sweep so the map does not grow with every address ever seen.
type authLimiters struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	perMinute int
	burst     int
	lastSweep time.Time
}

func newAuthLimiters() *authLimiters {
	return &authLimiters{
		clients:   make(map[string]*clientLimiter),
		perMinute: envInt("AUTH_RATE_PER_MINUTE", defaultAuthRequestsPerMinute),
		burst:     envInt("AUTH_RATE_BURST", defaultAuthBurst),
		lastSweep: time.Now(),
	}
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func (l *authLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterIdleEviction {
		for addr, c := range l.clients {
			if now.Sub(c.lastSeen) > limiterIdleEviction {
				delete(l.clients, addr)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.burst),
		}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

// RateLimitMiddleware limits registration and login attempts per client IP.
// AUTH_RATE_PER_MINUTE and AUTH_RATE_BURST tune the bucket.
func RateLimitMiddleware() gin.HandlerFunc {
	limiters := newAuthLimiters()

	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again shortly."})
			return
		}
		c.Next()
	}
}
