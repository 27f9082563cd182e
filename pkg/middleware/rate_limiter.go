package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"chat-sentiment/backend/pkg/errors"
	"chat-sentiment/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterOptions configures the rate limiter
type RateLimiterOptions struct {
	// Limit defines requests per second
	Limit rate.Limit
	// Burst defines maximum burst size allowed
	Burst int
	// ExpiryDuration defines how long to keep client state in memory
	ExpiryDuration time.Duration
	// CleanupInterval is how often idle clients are swept
	CleanupInterval time.Duration
	// KeyFunc extracts the limiting key from a request
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimiterOptions returns sensible defaults
func DefaultRateLimiterOptions() RateLimiterOptions {
	return RateLimiterOptions{
		Limit:           5,
		Burst:           10,
		ExpiryDuration:  time.Hour,
		CleanupInterval: time.Minute,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client key with a token bucket each.
type RateLimiter struct {
	mu      sync.Mutex
	options RateLimiterOptions
	clients map[string]*client
	logger  *logger.Logger
}

// NewRateLimiter creates a new rate limiter. Zero option fields take their defaults.
func NewRateLimiter(log *logger.Logger, options ...RateLimiterOptions) *RateLimiter {
	defaults := DefaultRateLimiterOptions()
	opts := defaults
	if len(options) > 0 {
		opts = options[0]
		if opts.Limit <= 0 {
			opts.Limit = defaults.Limit
		}
		if opts.Burst <= 0 {
			opts.Burst = defaults.Burst
		}
		if opts.ExpiryDuration <= 0 {
			opts.ExpiryDuration = defaults.ExpiryDuration
		}
		if opts.CleanupInterval <= 0 {
			opts.CleanupInterval = defaults.CleanupInterval
		}
		if opts.KeyFunc == nil {
			opts.KeyFunc = defaults.KeyFunc
		}
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	return &RateLimiter{
		options: opts,
		clients: make(map[string]*client),
		logger:  log,
	}
}

// Start sweeps idle clients until ctx is done.
func (r *RateLimiter) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.options.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(time.Now())
			}
		}
	}()
}

// Middleware returns a Gin middleware for rate limiting
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	burst := strconv.Itoa(r.options.Burst)

	return func(c *gin.Context) {
		key := r.options.KeyFunc(c)
		limiter := r.getLimiter(key)

		if !limiter.Allow() {
			r.logger.Warn("Rate limit exceeded",
				"client", key,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)

			c.Header("Retry-After", "1")
			c.Header("X-RateLimit-Limit", burst)
			_ = c.Error(errors.NewTooManyRequestsError("Too many requests. Please try again later."))
			c.Abort()
			return
		}

		c.Next()
	}
}

// Clients reports how many client keys are tracked.
func (r *RateLimiter) Clients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *RateLimiter) getLimiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, exists := r.clients[key]
	if !exists {
		limiter := rate.NewLimiter(r.options.Limit, r.options.Burst)
		r.clients[key] = &client{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}

	v.lastSeen = time.Now()
	return v.limiter
}

func (r *RateLimiter) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.clients {
		if now.Sub(v.lastSeen) > r.options.ExpiryDuration {
			delete(r.clients, k)
		}
	}
}
