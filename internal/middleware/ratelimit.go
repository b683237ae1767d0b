package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/tazuo/autoloot/internal/domain"
)

type limit struct {
	rps   float64
	burst int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client and endpoint.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	defaults       limit
	endpointLimits map[string]limit
	now            func() time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst. Event ingest gets a larger allowance than the control routes.
func NewRateLimiter(rps, burst int) *RateLimiter {
	if burst < 1 {
		burst = max(rps, 1)
	}
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		defaults: limit{rps: float64(rps), burst: burst},
		endpointLimits: map[string]limit{
			"/v1/events":      {rps: float64(rps * 4), burst: burst * 4},
			"/v1/world/items": {rps: float64(rps * 4), burst: burst * 4},
			"/health":         {rps: 2, burst: 20},
			"/metrics":        {rps: 2, burst: 20},
		},
		now: time.Now,
	}
	return rl
}

func (rl *RateLimiter) bucketFor(clientID, endpoint string) *rate.Limiter {
	key := clientID + ":" + endpoint

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		l, ok := rl.endpointLimits[endpoint]
		if !ok {
			l = rl.defaults
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = rl.now()
	return b.limiter
}

func (rl *RateLimiter) clientID(c *fiber.Ctx) string {
	if apiKey := c.Get("X-API-Key"); apiKey != "" {
		return "api:" + apiKey
	}
	return "ip:" + c.IP()
}

// Middleware returns a Fiber middleware for rate limiting.
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := rl.clientID(c)
		endpoint := c.Path()
		limiter := rl.bucketFor(clientID, endpoint)

		c.Set("X-RateLimit-Limit", strconv.Itoa(limiter.Burst()))
		if !limiter.AllowN(rl.now(), 1) {
			retry := time.Duration(float64(time.Second) / max(float64(limiter.Limit()), 0.001))
			retrySeconds := strconv.Itoa(max(int(retry.Round(time.Second).Seconds()), 1))

			appErr := domain.NewAppError(
				domain.ErrRateLimit,
				"Rate limit exceeded",
				fiber.StatusTooManyRequests,
				map[string]any{
					"client_id":   clientID,
					"endpoint":    endpoint,
					"retry_after": retrySeconds,
				},
			)

			c.Set("Retry-After", retrySeconds)
			c.Set("X-RateLimit-Remaining", "0")
			return c.Status(appErr.StatusCode).JSON(fiber.Map{
				"status":  "error",
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": appErr.Details,
			})
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.TokensAt(rl.now()))))
		return c.Next()
	}
}

// CleanupOldBuckets removes buckets idle for longer than an hour.
func (rl *RateLimiter) CleanupOldBuckets() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > time.Hour {
			delete(rl.buckets, key)
		}
	}
}

// StartCleanupRoutine starts a background routine to clean up old buckets
// and returns a stop function.
func (rl *RateLimiter) StartCleanupRoutine() (stop func()) {
	ticker := time.NewTicker(10 * time.Minute)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				rl.CleanupOldBuckets()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// Stats returns rate limiter statistics.
func (rl *RateLimiter) Stats() map[string]any {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]any{
		"active_buckets":      len(rl.buckets),
		"default_burst":       rl.defaults.burst,
		"default_refill_rate": rl.defaults.rps,
	}
}
