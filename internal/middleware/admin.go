package middleware

import (
	"time"

	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/security"

	"github.com/gofiber/fiber/v2"
)

// AdminSessionMiddleware requires a non-expired admin session, identified by
// the session-id cookie set at login. A valid touch extends the session's
// TTL by sessionTTL, so active admins never get logged out mid-work.
func AdminSessionMiddleware(sessions *security.AdminSessionStore, sessionTTL time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies(security.AdminSessionCookieName)
		if sessionID == "" {
			return respondAppError(c, apperror.New(apperror.CodeAuthRequired, "missing admin session"))
		}

		session, ok := sessions.Get(sessionID)
		if !ok {
			return respondAppError(c, apperror.New(apperror.CodeSessionExpired, "admin session expired or unknown; re-login required"))
		}

		sessions.Touch(sessionID, sessionTTL)

		c.Locals("admin_session_id", sessionID)
		c.Locals("admin_api_key_id", session.APIKeyID)
		c.Locals("admin_csrf_token", session.CSRFToken)
		return c.Next()
	}
}

// CSRFMiddleware enforces the double-submit CSRF check on state-changing
// admin requests: the X-CSRF-Token header must match the session's bound
// token byte-for-byte, and the token itself must still carry a valid,
// unexpired HMAC signature. Must run after AdminSessionMiddleware.
func CSRFMiddleware(guard *security.CSRFGuard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bound, ok := c.Locals("admin_csrf_token").(string)
		if !ok || bound == "" {
			return respondAppError(c, apperror.New(apperror.CodeCSRFFailed, "no CSRF token bound to this session"))
		}

		header := c.Get(security.CSRFTokenHeader)
		if header == "" || header != bound {
			return respondAppError(c, apperror.New(apperror.CodeCSRFFailed, "CSRF token missing or does not match session"))
		}

		if !guard.Validate(header) {
			return respondAppError(c, apperror.New(apperror.CodeCSRFFailed, "CSRF token signature invalid or expired"))
		}

		return c.Next()
	}
}
