package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/server/respond"
)

const sweepInterval = time.Minute

// ClientLimiter keeps a token bucket per client IP. Buckets idle long enough
// to have refilled completely are dropped on the next sweep.
type ClientLimiter struct {
	rate  float64
	burst float64
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

type clientBucket struct {
	tokens float64
	seen   time.Time
}

// NewClientLimiter allows rps requests per second per client with bursts of
// up to burst. rps <= 0 yields nil, which never throttles.
func NewClientLimiter(rps float64, burst int, now func() time.Time) *ClientLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	if now == nil {
		now = time.Now
	}
	return &ClientLimiter{
		rate:      rps,
		burst:     float64(burst),
		now:       now,
		clients:   make(map[string]*clientBucket),
		lastSweep: now(),
	}
}

// Reserve takes a token for client. It returns zero when the request may
// proceed, otherwise how long until a token is available.
func (l *ClientLimiter) Reserve(client string) time.Duration {
	if l == nil {
		return 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	b, ok := l.clients[client]
	if !ok {
		b = &clientBucket{tokens: l.burst, seen: now}
		l.clients[client] = b
	}
	if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.burst, b.tokens+elapsed*l.rate)
	}
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return 0
	}
	wait := (1 - b.tokens) / l.rate
	return time.Duration(math.Ceil(wait*1000)) * time.Millisecond
}

// Len reports how many client buckets are tracked.
func (l *ClientLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *ClientLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	full := time.Duration(l.burst / l.rate * float64(time.Second))
	for key, b := range l.clients {
		if now.Sub(b.seen) >= full {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects clients that exhausted their bucket with 429 and a
// Retry-After header. A nil limiter passes everything through.
func RateLimit(limiter *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		wait := limiter.Reserve(c.ClientIP())
		if wait <= 0 {
			c.Next()
			return
		}
		seconds := int(math.Ceil(wait.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		respond.Error(c, http.StatusTooManyRequests, "Too many requests")
	}
}
