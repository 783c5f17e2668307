package httpapi

import (
	"context"
	"strconv"

	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/models"

	"github.com/gofiber/fiber/v2"
)

// reservedContextKeys are the session ContextInfo entries this package
// uses to remember the most recently submitted envelope, so a later
// clarification answer can reconstruct and re-submit it. They are never
// surfaced to an Eye or to the caller.
const (
	contextKeyLastIntent      = "__last_intent"
	contextKeyLastWork        = "__last_work"
	contextKeyLastReasoningMD = "__last_reasoning_md"
)

// OrchestrateHandler serves POST /eyes/overseer/orchestrate (aliased at
// /validate): behind the API-key middleware mounted in routes.go, it gates
// the request on tenant and key quota before the Overseer is entered. It
// is the only quota gate: POST /session/{id}/clarifications also enters
// the Overseer, with no quota check.
type OrchestrateHandler struct {
	deps *Dependencies
}

func NewOrchestrateHandler(deps *Dependencies) *OrchestrateHandler {
	return &OrchestrateHandler{deps: deps}
}

func (h *OrchestrateHandler) Handle(c *fiber.Ctx) error {
	key, ok := c.Locals("api_key").(*models.APIKey)
	if !ok {
		return respondAppError(c, apperror.New(apperror.CodeAuthRequired, "missing API key context"))
	}
	tenantID, _ := c.Locals("tenant_id").(string)
	sess := h.deps.Sessions.GetOrCreate(key.ID, tenantID, "", models.LanguageAuto)

	if admitted, usage, err := h.admit(c.Context(), tenantID, key); err != nil {
		return respondErr(c, err)
	} else if !admitted {
		h.deps.Metrics.QuotaRejections.WithLabelValues("tenant").Inc()
		h.audit(c.Context(), sess.ID)
		return respondAppError(c, apperror.New(apperror.CodeQuotaExceeded,
			"tenant or API key quota exceeded, current usage "+strconv.FormatInt(usage, 10)))
	}

	req, decodeErr := decodeOrchestrateBody(c.Body())
	if decodeErr != nil {
		return respondAppError(c, decodeErr)
	}

	envelope := req.toWorkEnvelope(sess.ID, tenantID)

	result, err := h.deps.Overseer.Orchestrate(c.Context(), sess.ID, tenantID, envelope)
	if err != nil {
		return respondErr(c, err)
	}

	h.remember(key.ID, envelope)
	h.audit(c.Context(), sess.ID)

	return c.JSON(result)
}

func (h *OrchestrateHandler) admit(ctx context.Context, tenantID string, key *models.APIKey) (bool, int64, error) {
	tenantLimit := h.deps.TenantLimits.Resolve(tenantID, int64(h.deps.Config.DefaultTenantLimit))
	return h.deps.Admitter.Admit(ctx, tenantID, tenantLimit, key.ID, key.Limits.RequestsPerMinute)
}

// remember stashes the envelope's reusable fields on the connection's
// session so a later clarification answer can reconstruct it, per §4.3's
// merge-not-replace policy.
func (h *OrchestrateHandler) remember(connectionID string, envelope *models.WorkEnvelope) {
	merged := map[string]any{
		contextKeyLastIntent:      envelope.Intent,
		contextKeyLastReasoningMD: envelope.ReasoningMD,
	}
	for k, v := range envelope.ContextInfo {
		merged[k] = v
	}
	work := make(map[string]any, len(envelope.Work))
	for k, v := range envelope.Work {
		work[k] = v
	}
	merged[contextKeyLastWork] = work

	_, _ = h.deps.Sessions.Update(connectionID, models.SessionUpdate{ContextInfo: merged})
}

func (h *OrchestrateHandler) audit(ctx context.Context, sessionID string) {
	if h.deps.AuditLog == nil {
		return
	}
	sess, ok := h.deps.Sessions.GetByID(sessionID)
	if !ok {
		return
	}
	if err := h.deps.AuditLog.RecordSession(ctx, sess); err != nil {
		h.deps.Log.Warn("audit session write failed", "session_id", sessionID, "error", err)
	}
}
