package httpapi

import (
	"github.com/gofiber/fiber/v2"
)

// HealthHandler serves the liveness/readiness probes. /health is a cheap
// process-alive check; /health/ready additionally confirms the provider
// and both datastores are reachable, matching the teacher's distinction
// between a process being up and a process being able to do useful work.
type HealthHandler struct {
	deps *Dependencies
}

func NewHealthHandler(deps *Dependencies) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// Live serves GET /health.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"sessions": h.deps.Sessions.Count(),
	})
}

// Ready serves GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	if h.deps.ProviderHealth != nil {
		ok, err := h.deps.ProviderHealth.Check(c.Context())
		checks["provider"] = ok
		if !ok {
			healthy = false
			if err != nil {
				checks["provider_error"] = err.Error()
			}
		}
	}

	if h.deps.Mongo != nil {
		err := h.deps.Mongo.Ping(c.Context())
		checks["mongo"] = err == nil
		if err != nil {
			healthy = false
		}
	}

	if h.deps.RelationalDB != nil {
		err := h.deps.RelationalDB.Ping()
		checks["relational_db"] = err == nil
		if err != nil {
			healthy = false
		}
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{"status": healthy, "checks": checks})
}
