// Package ratelimit throttles the authentication endpoints per client IP.
package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/qolzam/natours/internal/apperror"
	"github.com/qolzam/natours/internal/pkg/log"
	"github.com/qolzam/natours/internal/platform/config"
)

// EndpointType represents different authentication endpoints for rate limiting
type EndpointType int

const (
	EndpointLogin EndpointType = iota
	EndpointPasswordReset
	EndpointSignup
)

func (e EndpointType) String() string {
	switch e {
	case EndpointLogin:
		return "login"
	case EndpointPasswordReset:
		return "password reset"
	case EndpointSignup:
		return "signup"
	default:
		return "unknown"
	}
}

// Config holds the configuration for rate limiting middleware
type Config struct {
	EndpointType EndpointType
	Limit        config.RateLimitConfig

	// KeyGenerator defaults to client IP plus path.
	KeyGenerator func(c *fiber.Ctx) string
}

func configDefault(cfg Config) Config {
	if cfg.Limit.Max <= 0 {
		cfg.Limit.Max = 5
	}
	if cfg.Limit.Duration <= 0 {
		cfg.Limit.Duration = 15 * time.Minute
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = func(c *fiber.Ctx) string {
			return c.IP() + ":" + c.Path()
		}
	}
	return cfg
}

// New creates a new rate limiting middleware handler. A disabled limit passes every request.
// Rejections are operational 429 errors rendered by the error normalizer.
func New(cfg Config) fiber.Handler {
	cfg = configDefault(cfg)
	name := cfg.EndpointType.String()

	return limiter.New(limiter.Config{
		Max:          cfg.Limit.Max,
		Expiration:   cfg.Limit.Duration,
		KeyGenerator: cfg.KeyGenerator,
		Next: func(c *fiber.Ctx) bool {
			return !cfg.Limit.Enabled
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.WarnWithContext(c.UserContext(), "[RateLimit] Rate limit exceeded for %s from IP: %s", name, c.IP())
			return apperror.New(fmt.Sprintf("Too many %s attempts. Please try again later.", name), http.StatusTooManyRequests)
		},
	})
}

func NewLoginLimiter(limit config.RateLimitConfig) fiber.Handler {
	return New(Config{EndpointType: EndpointLogin, Limit: limit})
}

func NewPasswordResetLimiter(limit config.RateLimitConfig) fiber.Handler {
	return New(Config{EndpointType: EndpointPasswordReset, Limit: limit})
}

func NewSignupLimiter(limit config.RateLimitConfig) fiber.Handler {
	return New(Config{EndpointType: EndpointSignup, Limit: limit})
}
