package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestAPIKeyMiddleware_RejectsMissingHeader(t *testing.T) {
	app := fiber.New()
	app.Get("/work", APIKeyMiddleware(nil), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/work", nil)
	resp, _ := app.Test(req)

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for a missing X-API-Key header, got %d", resp.StatusCode)
	}
}

func TestRequireScope_RejectsWithoutAPIKeyContext(t *testing.T) {
	app := fiber.New()
	app.Get("/work", RequireScope("tool:lint"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/work", nil)
	resp, _ := app.Test(req)

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 when no API key is in context, got %d", resp.StatusCode)
	}
}
