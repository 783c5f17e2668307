package middleware

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds the per-IP rate limits applied ahead of the Front-
// End's quota-aware handlers. These protect the process itself (and the
// admin login form) from abuse; they are not the tenant/key quota system
// in internal/quota, which accounts per-tenant usage against a budget.
type RateLimitConfig struct {
	// GlobalMax bounds requests per IP across /eyes, /session and /validate,
	// ahead of the per-tenant and per-key admission checks.
	GlobalMax        int
	GlobalExpiration time.Duration

	// AdminLoginMax bounds login attempts per IP, slowing down credential
	// stuffing against /admin/auth/login.
	AdminLoginMax        int
	AdminLoginExpiration time.Duration

	// WebSocketMax bounds pipeline WebSocket upgrade attempts per IP.
	WebSocketMax        int
	WebSocketExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		GlobalMax:        200,
		GlobalExpiration: 1 * time.Minute,

		AdminLoginMax:        10,
		AdminLoginExpiration: 1 * time.Minute,

		WebSocketMax:        30,
		WebSocketExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig loads config from environment variables with defaults.
func LoadRateLimitConfig() *RateLimitConfig {
	config := DefaultRateLimitConfig()

	if v := os.Getenv("RATE_LIMIT_GLOBAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.GlobalMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_ADMIN_LOGIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.AdminLoginMax = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WEBSOCKET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.WebSocketMax = n
		}
	}

	if os.Getenv("ENVIRONMENT") == "development" {
		config.GlobalMax = 1000
		config.WebSocketMax = 200
		log.Println("[rate-limit] development mode: using relaxed limits")
	}

	return config
}

// GlobalIPRateLimiter is the first line of defense against abuse of the
// orchestrate/session surface, ahead of any API-key quota accounting.
func GlobalIPRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.GlobalMax,
		Expiration: config.GlobalExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "global:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"code": "E_QUOTA_EXCEEDED",
				"hint": "too many requests from this address, please slow down",
			})
		},
	})
}

// AdminLoginRateLimiter slows down credential-stuffing attempts against the
// admin login endpoint.
func AdminLoginRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.AdminLoginMax,
		Expiration: config.AdminLoginExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "admin-login:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			log.Printf("[rate-limit] admin login limit reached for %s", c.IP())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"code": "E_QUOTA_EXCEEDED",
				"hint": "too many login attempts, please wait before retrying",
			})
		},
	})
}

// WebSocketRateLimiter bounds pipeline WebSocket upgrade attempts per IP.
func WebSocketRateLimiter(config *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        config.WebSocketMax,
		Expiration: config.WebSocketExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "ws:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"code": "E_QUOTA_EXCEEDED",
				"hint": "too many connection attempts, please wait before reconnecting",
			})
		},
	})
}
