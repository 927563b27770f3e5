package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/learning-platform/internal/config"
	apperrors "github.com/spec-kit/learning-platform/pkg/util/errorutil"
)

const limiterCleanupInterval = 5 * time.Minute

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	limit       rate.Limit
	burst       int
	lastCleanup time.Time
}

func newIPRateLimiter(cfg config.RateLimitConfig) *ipRateLimiter {
	requests := cfg.Requests
	if requests <= 0 {
		requests = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = requests
	}
	return &ipRateLimiter{
		limiters:    make(map[string]*rate.Limiter),
		limit:       rate.Limit(float64(requests) / cfg.Window().Seconds()),
		burst:       burst,
		lastCleanup: time.Now(),
	}
}

func (rl *ipRateLimiter) get(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) >= limiterCleanupInterval {
		for k, l := range rl.limiters {
			if l.Tokens() >= float64(rl.burst) {
				delete(rl.limiters, k)
			}
		}
		rl.lastCleanup = time.Now()
	}

	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// RateLimitByIP throttles credential endpoints per client IP.
func RateLimitByIP(cfg config.RateLimitConfig, logger *zap.Logger) fiber.Handler {
	rl := newIPRateLimiter(cfg)
	return func(c *fiber.Ctx) error {
		limiter := rl.get(c.IP())
		if limiter.Allow() {
			return c.Next()
		}

		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()
		retryAfter := max(int(delay.Seconds()), 1)

		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
		if logger != nil {
			logger.Warn("rate limit exceeded",
				zap.String("ip", c.IP()),
				zap.String("path", c.Path()),
				zap.Int("retry_after", retryAfter))
		}
		return apperrors.NewTooManyRequests(retryAfter)
	}
}
