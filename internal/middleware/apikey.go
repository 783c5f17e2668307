package middleware

import (
	"log/slog"

	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/models"
	"github.com/thirdeye/overseer/internal/services"

	"github.com/gofiber/fiber/v2"
)

// APIKeyMiddleware validates the X-API-Key header against the key store and
// stores the resolved key on locals for downstream handlers and middleware.
func APIKeyMiddleware(apiKeyService *services.APIKeyService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("X-API-Key")
		if raw == "" {
			return respondAppError(c, apperror.New(apperror.CodeAuthRequired, "missing X-API-Key header"))
		}

		key, err := apiKeyService.ValidateKey(c.Context(), raw)
		if err != nil {
			slog.Warn("api key rejected", "error", err)
			return respondAppError(c, apperror.Wrap(apperror.CodeAuthRequired, "invalid or expired API key", err))
		}

		c.Locals("api_key", key)
		c.Locals("tenant_id", key.TenantID)
		c.Locals("api_key_role", string(key.Role))

		return c.Next()
	}
}

// RequireScope rejects the request unless the authenticated key carries
// scope (exactly, or via a matching "<namespace>:*"/"*" wildcard).
func RequireScope(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := c.Locals("api_key").(*models.APIKey)
		if !ok {
			return respondAppError(c, apperror.New(apperror.CodeAuthRequired, "missing API key context"))
		}
		if !key.HasScope(scope) {
			return respondAppError(c, apperror.New(apperror.CodeAuthRequired, "API key lacks required scope: "+scope))
		}
		return c.Next()
	}
}

// RequireAdminRole rejects the request unless the authenticated key has
// role=admin, for routes callable directly with a minted admin key rather
// than through a full admin session. RegisterRoutes mounts it on no route.
func RequireAdminRole(c *fiber.Ctx) error {
	key, ok := c.Locals("api_key").(*models.APIKey)
	if !ok || key.Role != models.RoleAdmin {
		return respondAppError(c, apperror.New(apperror.CodeAuthRequired, "admin role required"))
	}
	return c.Next()
}

// respondAppError writes an apperror.Error as its canonical JSON shape and
// status code. Every middleware and handler in this service funnels
// rejections through apperror so a caller never sees a prose-only error.
func respondAppError(c *fiber.Ctx, err *apperror.Error) error {
	return c.Status(err.HTTPStatus()).JSON(fiber.Map{
		"code": err.Code,
		"hint": err.Hint,
	})
}
