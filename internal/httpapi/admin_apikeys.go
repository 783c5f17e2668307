package httpapi

import (
	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/models"

	"github.com/gofiber/fiber/v2"
)

// APIKeyAdminHandler exposes the admin CRUD surface over API keys. Every
// mutator here sits behind AdminSessionMiddleware + CSRFMiddleware.
type APIKeyAdminHandler struct {
	deps *Dependencies
}

func NewAPIKeyAdminHandler(deps *Dependencies) *APIKeyAdminHandler {
	return &APIKeyAdminHandler{deps: deps}
}

// Create mints a new API key. POST /admin/keys
func (h *APIKeyAdminHandler) Create(c *fiber.Ctx) error {
	var req models.CreateAPIKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return respondAppError(c, apperror.New(apperror.CodeBadPayloadSchema, "malformed create-key body"))
	}
	if req.Name == "" {
		return respondAppError(c, apperror.New(apperror.CodeBadPayloadSchema, "name is required"))
	}
	if req.Role == "" {
		req.Role = models.RoleConsumer
	}

	resp, err := h.deps.APIKeys.Create(c.Context(), &req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List returns every key for a tenant. GET /admin/keys?tenant_id=...
func (h *APIKeyAdminHandler) List(c *fiber.Ctx) error {
	tenantID := c.Query("tenant_id")
	keys, err := h.deps.APIKeys.ListByTenant(c.Context(), tenantID)
	if err != nil {
		return respondErr(c, err)
	}
	if keys == nil {
		keys = []*models.APIKeyListItem{}
	}
	return c.JSON(fiber.Map{"keys": keys})
}

// Get returns one key. GET /admin/keys/:id
func (h *APIKeyAdminHandler) Get(c *fiber.Ctx) error {
	key, err := h.deps.APIKeys.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(key.ToListItem())
}

// Revoke soft-deletes a key. POST /admin/keys/:id/revoke
func (h *APIKeyAdminHandler) Revoke(c *fiber.Ctx) error {
	if err := h.deps.APIKeys.Revoke(c.Context(), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Delete permanently removes a key. DELETE /admin/keys/:id
func (h *APIKeyAdminHandler) Delete(c *fiber.Ctx) error {
	if err := h.deps.APIKeys.Delete(c.Context(), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
