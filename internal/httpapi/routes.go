package httpapi

import (
	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/middleware"
	"github.com/thirdeye/overseer/internal/models"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes wires the Front-End's full surface onto app. It is the
// only place HTTP paths are assigned to handlers; everything below the
// handler layer is path-agnostic.
func RegisterRoutes(app *fiber.App, deps *Dependencies) {
	orchestrate := NewOrchestrateHandler(deps)
	sessionH := NewSessionHandler(deps)
	ws := NewPipelineWebSocketHandler(deps)
	auth := NewAdminAuthHandler(deps)
	keys := NewAPIKeyAdminHandler(deps)
	tenants := NewTenantQuotaHandler(deps)
	health := NewHealthHandler(deps)

	rl := middleware.LoadRateLimitConfig()
	globalLimiter := middleware.GlobalIPRateLimiter(rl)

	app.Get("/health", health.Live)
	app.Get("/health/ready", health.Ready)

	eyes := app.Group("/eyes", globalLimiter, middleware.APIKeyMiddleware(deps.APIKeys))
	eyes.Post("/overseer/orchestrate", orchestrate.Handle)

	// /validate is a spec-level alias for the orchestrate endpoint, kept
	// for hosts that speak the shorter verb.
	app.Post("/validate", globalLimiter, middleware.APIKeyMiddleware(deps.APIKeys), orchestrate.Handle)

	session := app.Group("/session", globalLimiter, middleware.APIKeyMiddleware(deps.APIKeys))
	session.Get("/:id", sessionH.Get)
	session.Post("/:id/clarifications", sessionH.Clarifications)

	registerPipelineWebSocket(app, deps, ws, middleware.WebSocketRateLimiter(rl))

	adminAuth := app.Group("/admin/auth")
	adminAuth.Post("/login", middleware.AdminLoginRateLimiter(rl), auth.Login)
	adminAuth.Post("/logout", middleware.AdminSessionMiddleware(deps.AdminSessions, deps.Config.AdminSessionTTL), auth.Logout)
	adminAuth.Get("/me", middleware.AdminSessionMiddleware(deps.AdminSessions, deps.Config.AdminSessionTTL), auth.Me)

	adminSession := middleware.AdminSessionMiddleware(deps.AdminSessions, deps.Config.AdminSessionTTL)
	csrf := middleware.CSRFMiddleware(deps.CSRF)

	adminKeys := app.Group("/admin/keys", adminSession)
	adminKeys.Get("/", keys.List)
	adminKeys.Get("/:id", keys.Get)
	adminKeys.Post("/", csrf, keys.Create)
	adminKeys.Post("/:id/revoke", csrf, keys.Revoke)
	adminKeys.Delete("/:id", csrf, keys.Delete)

	adminTenants := app.Group("/admin/tenants", adminSession)
	adminTenants.Get("/:id/quota", tenants.Get)
	adminTenants.Post("/:id/quota", csrf, tenants.Set)
	adminTenants.Post("/:id/quota/reset", csrf, tenants.Reset)
}

// registerPipelineWebSocket guards the WebSocket upgrade for
// /ws/pipeline/:session_id: the caller authenticates by presenting its API
// key as the "api-key-<key>" subprotocol (per §6, since a WS handshake
// can't carry a custom header in every client library), and the connection
// is bound to the named session before the upgrade completes.
func registerPipelineWebSocket(app *fiber.App, deps *Dependencies, handler *PipelineWebSocketHandler, connectionLimiter fiber.Handler) {
	const subprotocolPrefix = "api-key-"

	app.Use("/ws/pipeline/:session_id", connectionLimiter)
	app.Use("/ws/pipeline/:session_id", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		rawKey := c.Get("Sec-WebSocket-Protocol")
		for _, proto := range splitProtocols(rawKey) {
			if len(proto) > len(subprotocolPrefix) && proto[:len(subprotocolPrefix)] == subprotocolPrefix {
				rawKey = proto[len(subprotocolPrefix):]
				break
			}
		}
		if rawKey == "" {
			return respondAppError(c, apperror.New(apperror.CodeAuthRequired, "missing api-key-<key> websocket subprotocol"))
		}

		key, err := deps.APIKeys.ValidateKey(c.Context(), rawKey)
		if err != nil {
			return respondAppError(c, apperror.Wrap(apperror.CodeAuthRequired, "invalid or expired API key", err))
		}

		sessionID := c.Params("session_id")
		sess, ok := deps.Sessions.GetByID(sessionID)
		if !ok {
			sess = deps.Sessions.GetOrCreate(key.ID, key.TenantID, "", models.LanguageAuto)
			sessionID = sess.ID
		}
		if err := deps.Sessions.BindExisting(key.ID, sessionID); err != nil {
			return respondAppError(c, apperror.New(apperror.CodeSessionExpired, "session not found or expired"))
		}

		c.Locals("allowed", true)
		c.Locals("session_id", sessionID)
		return c.Next()
	})

	app.Get("/ws/pipeline/:session_id", websocket.New(handler.Handle))
}

func splitProtocols(header string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(header); i++ {
		if i == len(header) || header[i] == ',' {
			field := header[start:i]
			for len(field) > 0 && field[0] == ' ' {
				field = field[1:]
			}
			if field != "" {
				out = append(out, field)
			}
			start = i + 1
		}
	}
	return out
}
