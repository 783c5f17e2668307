package httpapi

import (
	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionHandler serves the session-scoped endpoints: reading a session's
// metadata and submitting clarification answers that restart orchestration.
type SessionHandler struct {
	deps *Dependencies
}

func NewSessionHandler(deps *Dependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// Get serves GET /session/{id}.
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	sess, ok := h.deps.Sessions.GetByID(sessionID)
	if !ok {
		return respondAppError(c, apperror.New(apperror.CodeSessionExpired, "session not found or expired"))
	}
	return c.JSON(sess)
}

// clarificationAnswer is one entry of a POST /session/{id}/clarifications body.
type clarificationAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type clarificationsRequest struct {
	Answers []clarificationAnswer `json:"answers"`
}

// Clarifications serves POST /session/{id}/clarifications: it merges the
// answers into the session's context_info and restarts orchestration with
// the envelope remembered from the session's last orchestrate call, per
// §4.3.
func (h *SessionHandler) Clarifications(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	sess, ok := h.deps.Sessions.GetByID(sessionID)
	if !ok {
		return respondAppError(c, apperror.New(apperror.CodeSessionExpired, "session not found or expired"))
	}

	var req clarificationsRequest
	if err := c.BodyParser(&req); err != nil {
		return respondAppError(c, apperror.New(apperror.CodeBadPayloadSchema, "malformed clarifications body"))
	}
	if len(req.Answers) == 0 {
		return respondAppError(c, apperror.New(apperror.CodeBadPayloadSchema, "answers must be a non-empty array"))
	}

	answers := make([]map[string]string, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, map[string]string{"question": a.Question, "answer": a.Answer})
	}

	contextInfo := make(map[string]any, len(sess.ContextInfo)+1)
	for k, v := range sess.ContextInfo {
		contextInfo[k] = v
	}
	contextInfo["clarification_answers"] = answers

	updated, err := h.deps.Sessions.UpdateByID(sessionID, models.SessionUpdate{ContextInfo: contextInfo})
	if err != nil {
		return respondAppError(c, apperror.New(apperror.CodeSessionExpired, "session expired while recording clarifications"))
	}

	envelope := reconstructEnvelope(updated)

	result, err := h.deps.Overseer.Orchestrate(c.Context(), updated.ID, updated.TenantID, envelope)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(result)
}

// reconstructEnvelope rebuilds the work envelope the orchestrate handler
// stashed in the session's context_info, so a clarification answer can
// restart orchestration without the host resubmitting the original work.
func reconstructEnvelope(sess *models.Session) *models.WorkEnvelope {
	intent, _ := sess.ContextInfo[contextKeyLastIntent].(string)
	reasoningMD, _ := sess.ContextInfo[contextKeyLastReasoningMD].(string)

	work := map[string]string{}
	if raw, ok := sess.ContextInfo[contextKeyLastWork].(map[string]any); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				work[k] = s
			}
		}
	}

	contextInfo := make(map[string]any, len(sess.ContextInfo))
	for k, v := range sess.ContextInfo {
		switch k {
		case contextKeyLastIntent, contextKeyLastWork, contextKeyLastReasoningMD:
			continue
		}
		contextInfo[k] = v
	}

	return &models.WorkEnvelope{
		Intent:      intent,
		Work:        work,
		ContextInfo: contextInfo,
		ReasoningMD: reasoningMD,
		Context: models.EnvelopeContext{
			SessionID: sess.ID,
			Language:  sess.Language,
			Budget:    sess.TokenBudget,
			TenantID:  sess.TenantID,
		},
		StrictMode: false,
	}
}
