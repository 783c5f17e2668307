package httpapi

import (
	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TenantQuotaHandler exposes the admin CRUD surface over per-tenant quota
// overrides, backed by the same quota.Manager the Front-End's admission
// check reads from.
type TenantQuotaHandler struct {
	deps *Dependencies
}

func NewTenantQuotaHandler(deps *Dependencies) *TenantQuotaHandler {
	return &TenantQuotaHandler{deps: deps}
}

// Get returns a tenant's configured limit and current rolling-window usage.
// GET /admin/tenants/:id/quota
func (h *TenantQuotaHandler) Get(c *fiber.Ctx) error {
	tenantID := c.Params("id")
	limit := h.deps.TenantLimits.Resolve(tenantID, int64(h.deps.Config.DefaultTenantLimit))

	usage, err := h.deps.QuotaManager.GetUsage(c.Context(), tenantID)
	if err != nil {
		return respondErr(c, err)
	}

	return c.JSON(models.TenantQuota{TenantID: tenantID, Limit: limit, CurrentUsage: usage})
}

type setTenantQuotaRequest struct {
	Limit int64 `json:"limit"`
}

// Set overrides a tenant's requests-per-window limit.
// POST /admin/tenants/:id/quota
func (h *TenantQuotaHandler) Set(c *fiber.Ctx) error {
	tenantID := c.Params("id")

	var req setTenantQuotaRequest
	if err := c.BodyParser(&req); err != nil || req.Limit <= 0 {
		return respondAppError(c, apperror.New(apperror.CodeBadPayloadSchema, "limit must be a positive integer"))
	}

	h.deps.TenantLimits.Set(tenantID, req.Limit)
	h.deps.QuotaManager.SetLimit(c.Context(), tenantID, req.Limit)

	return c.JSON(models.TenantQuota{TenantID: tenantID, Limit: req.Limit})
}

// Reset clears a tenant's rolling-window usage, for an admin unblocking a
// tenant that tripped its limit.
// POST /admin/tenants/:id/quota/reset
func (h *TenantQuotaHandler) Reset(c *fiber.Ctx) error {
	tenantID := c.Params("id")
	if err := h.deps.QuotaManager.Reset(c.Context(), tenantID); err != nil {
		return respondErr(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
