package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/thirdeye/overseer/internal/security"

	"github.com/gofiber/fiber/v2"
)

func TestAdminSessionMiddleware_RejectsMissingCookie(t *testing.T) {
	app := fiber.New()
	sessions := security.NewAdminSessionStore()
	app.Get("/admin/ping", AdminSessionMiddleware(sessions, time.Hour), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	resp, _ := app.Test(req)

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestAdminSessionMiddleware_AllowsValidSession(t *testing.T) {
	app := fiber.New()
	sessions := security.NewAdminSessionStore()
	guard := security.NewCSRFGuard("secret")
	session, err := sessions.Create("key-1", time.Hour, guard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	app.Get("/admin/ping", AdminSessionMiddleware(sessions, time.Hour), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.AddCookie(&http.Cookie{Name: security.AdminSessionCookieName, Value: session.ID})
	resp, _ := app.Test(req)

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAdminSessionMiddleware_RejectsExpiredSession(t *testing.T) {
	app := fiber.New()
	sessions := security.NewAdminSessionStore()
	guard := security.NewCSRFGuard("secret")
	session, _ := sessions.Create("key-1", -time.Second, guard)

	app.Get("/admin/ping", AdminSessionMiddleware(sessions, time.Hour), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.AddCookie(&http.Cookie{Name: security.AdminSessionCookieName, Value: session.ID})
	resp, _ := app.Test(req)

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for an expired session, got %d", resp.StatusCode)
	}
}

func TestCSRFMiddleware_RejectsMismatchedHeader(t *testing.T) {
	app := fiber.New()
	guard := security.NewCSRFGuard("secret")

	app.Post("/admin/mutate", func(c *fiber.Ctx) error {
		c.Locals("admin_csrf_token", guard.Generate("random-token"))
		return CSRFMiddleware(guard)(c)
	})

	req := httptest.NewRequest("POST", "/admin/mutate", nil)
	req.Header.Set(security.CSRFTokenHeader, "wrong-token")
	resp, _ := app.Test(req)

	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestCSRFMiddleware_AllowsMatchingToken(t *testing.T) {
	app := fiber.New()
	guard := security.NewCSRFGuard("secret")
	token := guard.Generate("random-token")

	app.Post("/admin/mutate", func(c *fiber.Ctx) error {
		c.Locals("admin_csrf_token", token)
		return CSRFMiddleware(guard)(c)
	}, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("POST", "/admin/mutate", nil)
	req.Header.Set(security.CSRFTokenHeader, token)
	resp, _ := app.Test(req)

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
