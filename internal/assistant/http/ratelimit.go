package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/quantumcode/quantumcode-backend/internal/auth"
)

// idleLimiterTTL is how long an unused per-user limiter is kept.
const idleLimiterTTL = 10 * time.Minute

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// UserRateLimiter hands out one token bucket per authenticated user.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*userLimiter
	every    rate.Limit
	burst    int
	now      func() time.Time
	lastGC   time.Time
}

// NewUserRateLimiter allows perMinute requests per user with bursts of the
// same size.
func NewUserRateLimiter(perMinute int) *UserRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &UserRateLimiter{
		limiters: make(map[string]*userLimiter),
		every:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		now:      time.Now,
	}
}

// Allow reports whether uid may make a request now, and if not, how long
// until it may.
func (l *UserRateLimiter) Allow(uid string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	ul, ok := l.limiters[uid]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[uid] = ul
	}
	ul.lastSeen = now

	r := ul.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *UserRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastGC) < idleLimiterTTL {
		return
	}
	l.lastGC = now
	for uid, ul := range l.limiters {
		if now.Sub(ul.lastSeen) > idleLimiterTTL {
			delete(l.limiters, uid)
		}
	}
}

// Middleware rejects requests over the caller's budget with 429.
func (l *UserRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := l.Allow(auth.UserFirebaseUID(c))
		if !ok {
			secs := int(wait/time.Second) + 1
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}
