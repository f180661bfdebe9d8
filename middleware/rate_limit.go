package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"rbac-admin/common"
	"rbac-admin/pkg/cache"
	"rbac-admin/pkg/log"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Scope namespaces the counters, e.g. "login".
	Scope       string
	WindowSize  time.Duration
	MaxRequests int64

	KeyGenerator   func(*gin.Context) string
	SkipPaths      []string
	OnLimitReached func(*gin.Context, RateLimitInfo)
}

// RateLimitInfo contains rate limit status information
type RateLimitInfo struct {
	Key        string
	Limit      int64
	Remaining  int64
	RetryAt    time.Time
	WindowSize time.Duration
}

// RateLimits are the limits of the named rate limiters.
type RateLimits struct {
	LoginMaxRequests int64
	LoginWindow      time.Duration
	APIMaxRequests   int64
	APIWindow        time.Duration
}

func (r RateLimits) withDefaults() RateLimits {
	if r.LoginMaxRequests == 0 {
		r.LoginMaxRequests = 5
	}
	if r.LoginWindow == 0 {
		r.LoginWindow = 5 * time.Minute
	}
	if r.APIMaxRequests == 0 {
		r.APIMaxRequests = 120
	}
	if r.APIWindow == 0 {
		r.APIWindow = time.Minute
	}
	return r
}

// DefaultRateLimitConfig returns a default rate limiting configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Scope:          "default",
		WindowSize:     time.Minute,
		MaxRequests:    100,
		KeyGenerator:   defaultKeyGenerator,
		SkipPaths:      []string{"/health", "/metrics"},
		OnLimitReached: defaultOnLimitReached,
	}
}

// RateLimit counts requests per key in fixed windows aligned to WindowSize.
// A failing cache lets requests through.
func (m *middlewares) RateLimit(config ...RateLimitConfig) gin.HandlerFunc {
	cfg := DefaultRateLimitConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = defaultKeyGenerator
	}
	if cfg.OnLimitReached == nil {
		cfg.OnLimitReached = defaultOnLimitReached
	}
	if cfg.Scope == "" {
		cfg.Scope = "default"
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = time.Minute
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 100
	}

	skipPaths := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		info, allowed, err := checkRateLimit(c.Request.Context(), m.cache, cfg, cfg.KeyGenerator(c), time.Now())
		if err != nil {
			m.logger.WarnContext(c.Request.Context(), "Rate limit check failed", log.String("key", info.Key), log.Error(err))
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(info.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(info.Remaining, 10))

		if !allowed {
			m.logger.WarnContext(c.Request.Context(), "Rate limit exceeded",
				log.String("key", info.Key),
				log.Int64("limit", info.Limit),
				log.String("client_ip", c.ClientIP()),
				log.String("path", c.Request.URL.Path),
			)
			cfg.OnLimitReached(c, info)
			return
		}

		c.Next()
	}
}

// LoginRateLimit throttles login attempts per client IP.
func (m *middlewares) LoginRateLimit() gin.HandlerFunc {
	return m.RateLimit(RateLimitConfig{
		Scope:       "login",
		WindowSize:  m.rateLimits.LoginWindow,
		MaxRequests: m.rateLimits.LoginMaxRequests,
	})
}

// APIRateLimit throttles authenticated API calls per user.
func (m *middlewares) APIRateLimit() gin.HandlerFunc {
	return m.RateLimit(RateLimitConfig{
		Scope:        "api",
		WindowSize:   m.rateLimits.APIWindow,
		MaxRequests:  m.rateLimits.APIMaxRequests,
		KeyGenerator: UserKeyGenerator,
		SkipPaths:    []string{"/health", "/metrics"},
	})
}

func checkRateLimit(ctx context.Context, client cache.Client, cfg RateLimitConfig, subject string, now time.Time) (RateLimitInfo, bool, error) {
	windowStart := now.Truncate(cfg.WindowSize)
	resetTime := windowStart.Add(cfg.WindowSize)
	key := cache.Key(cache.RateLimitKey(cfg.Scope, subject), windowStart.Unix())

	info := RateLimitInfo{
		Key:        key,
		Limit:      cfg.MaxRequests,
		Remaining:  cfg.MaxRequests,
		RetryAt:    resetTime,
		WindowSize: cfg.WindowSize,
	}

	current, err := client.Increment(ctx, key, 1, cfg.WindowSize)
	if err != nil {
		return info, true, err
	}

	info.Remaining = cfg.MaxRequests - current
	if info.Remaining < 0 {
		info.Remaining = 0
	}
	return info, current <= cfg.MaxRequests, nil
}

func defaultKeyGenerator(c *gin.Context) string {
	return "ip:" + common.GetClientIP(c)
}

func defaultOnLimitReached(c *gin.Context, info RateLimitInfo) {
	message := fmt.Sprintf("Too many requests. Limit %d requests per %v", info.Limit, info.WindowSize)
	common.ResponseRateLimitExceeded(c, message, info.RetryAt)
}

// UserKeyGenerator keys by the authenticated user, falling back to the client IP.
func UserKeyGenerator(c *gin.Context) string {
	if user := common.GetUserFromCtx(c); user != nil {
		return fmt.Sprintf("user:%d", user.ID)
	}
	return defaultKeyGenerator(c)
}
