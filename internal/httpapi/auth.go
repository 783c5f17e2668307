package httpapi

import (
	"log/slog"
	"time"

	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/models"
	"github.com/thirdeye/overseer/internal/security"
	"github.com/thirdeye/overseer/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminAuthHandler handles admin login/logout. There is no self-service
// registration or refresh-token flow: admin accounts are provisioned out of
// band (no route here creates one), and a login is the only credential
// exchange.
type AdminAuthHandler struct {
	accounts   *services.AdminAccountService
	apiKeys    *services.APIKeyService
	sessions   *security.AdminSessionStore
	csrf       *security.CSRFGuard
	sessionTTL time.Duration
}

func NewAdminAuthHandler(deps *Dependencies) *AdminAuthHandler {
	return &AdminAuthHandler{
		accounts:   deps.Accounts,
		apiKeys:    deps.APIKeys,
		sessions:   deps.AdminSessions,
		csrf:       deps.CSRF,
		sessionTTL: deps.Config.AdminSessionTTL,
	}
}

// AdminLoginRequest is the request body for POST /admin/auth/login.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginResponse returns the freshly-minted admin API key once, and the
// CSRF token to echo on X-CSRF-Token for subsequent mutating requests.
type AdminLoginResponse struct {
	APIKey    string `json:"apiKey"`
	CSRFToken string `json:"csrfToken"`
	ExpiresAt string `json:"expiresAt"`
}

// Login verifies admin credentials, mints a fresh admin-role API key, opens
// an admin session bound to that key, and returns both the key and the
// session's CSRF token. A httpOnly session cookie and an httpOnly CSRF
// cookie are set alongside the JSON body.
func (h *AdminAuthHandler) Login(c *fiber.Ctx) error {
	var req AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondAppError(c, apperror.New(apperror.CodeBadPayloadSchema, "malformed login body"))
	}
	if req.Email == "" || req.Password == "" {
		return respondAppError(c, apperror.New(apperror.CodeBadPayloadSchema, "email and password are required"))
	}

	account, err := h.accounts.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("admin login failed", "email", req.Email, "error", err)
		return respondAppError(c, apperror.Wrap(apperror.CodeAuthRequired, "invalid email or password", err))
	}

	keyResp, err := h.apiKeys.Create(c.Context(), &models.CreateAPIKeyRequest{
		Name:          "admin session for " + account.Email,
		Role:          models.RoleAdmin,
		Limits:        models.APIKeyLimits{RequestsPerMinute: 120, Scopes: []string{"*"}},
		ExpiresInDays: 1,
	})
	if err != nil {
		return respondAppError(c, apperror.Wrap(apperror.CodeInternal, "failed to mint admin API key", err))
	}

	session, err := h.sessions.Create(keyResp.ID, h.sessionTTL, h.csrf)
	if err != nil {
		return respondAppError(c, apperror.Wrap(apperror.CodeInternal, "failed to open admin session", err))
	}

	c.Cookie(&fiber.Cookie{
		Name:     security.AdminSessionCookieName,
		Value:    session.ID,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     security.CSRFCookieName,
		Value:    session.CSRFToken,
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})

	slog.Info("admin login succeeded", "account_id", account.ID, "session_id", session.ID)

	return c.JSON(AdminLoginResponse{
		APIKey:    keyResp.Key,
		CSRFToken: session.CSRFToken,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout revokes the admin session and the API key it was bound to, so a
// leaked key stops working the moment the admin signs out.
func (h *AdminAuthHandler) Logout(c *fiber.Ctx) error {
	sessionID, _ := c.Locals("admin_session_id").(string)
	apiKeyID, _ := c.Locals("admin_api_key_id").(string)

	if sessionID != "" {
		h.sessions.Revoke(sessionID)
	}
	if apiKeyID != "" {
		if err := h.apiKeys.Revoke(c.Context(), apiKeyID); err != nil {
			slog.Warn("failed to revoke admin API key on logout", "api_key_id", apiKeyID, "error", err)
		}
	}

	c.Cookie(&fiber.Cookie{Name: security.AdminSessionCookieName, Value: "", Expires: time.Unix(0, 0), HTTPOnly: true})
	c.Cookie(&fiber.Cookie{Name: security.CSRFCookieName, Value: "", Expires: time.Unix(0, 0), HTTPOnly: true})

	return c.SendStatus(fiber.StatusNoContent)
}

// Me returns the admin account bound to the current session, for the admin
// console to confirm who is logged in.
func (h *AdminAuthHandler) Me(c *fiber.Ctx) error {
	apiKeyID, _ := c.Locals("admin_api_key_id").(string)
	if apiKeyID == "" {
		return respondAppError(c, apperror.New(apperror.CodeAuthRequired, "no admin session"))
	}

	key, err := h.apiKeys.GetByID(c.Context(), apiKeyID)
	if err != nil {
		return respondAppError(c, apperror.Wrap(apperror.CodeSessionExpired, "admin session's key no longer exists", err))
	}

	return c.JSON(fiber.Map{
		"apiKeyId": key.ID,
		"role":     key.Role,
	})
}
