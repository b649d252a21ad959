package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 10 * time.Minute
)

// RateLimiter keeps one token bucket per principal.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[uuid.UUID]*limiterEntry
	perSecond rate.Limit
	burst     int
	stopCh    chan struct{}
	stopOnce  sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per principal with bursts of up
// to burst. Call Stop to end the cleanup goroutine.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters:  make(map[uuid.UUID]*limiterEntry),
		perSecond: rate.Limit(float64(perMinute) / 60.0),
		burst:     burst,
		stopCh:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (r *RateLimiter) Allow(principalID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.limiters[principalID]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.perSecond, r.burst)}
		r.limiters[principalID] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// retryAfter is how long until one token is available again.
func (r *RateLimiter) retryAfter() time.Duration {
	if r.perSecond <= 0 {
		return time.Minute
	}
	return time.Duration(float64(time.Second) / float64(r.perSecond))
}

func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := time.Now()
			for id, entry := range r.limiters {
				if now.Sub(entry.lastSeen) > limiterTTL {
					delete(r.limiters, id)
				}
			}
			r.mu.Unlock()
		case <-r.stopCh:
			return
		}
	}
}

func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RateLimitMiddleware throttles mutating requests per principal. Reads and
// requests without a principal pass through. It must run after
// AuthMiddleware.
func RateLimitMiddleware(rl *RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		principalID := GetPrincipalID(c)
		if principalID == uuid.Nil {
			c.Next()
			return
		}

		if !rl.Allow(principalID) {
			secs := int(rl.retryAfter().Seconds())
			if secs < 1 {
				secs = 1
			}
			logger.Warn("rate limit exceeded",
				zap.String("principal_id", principalID.String()),
				zap.Int("retry_after", secs),
			)
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
			})
			return
		}
		c.Next()
	}
}
