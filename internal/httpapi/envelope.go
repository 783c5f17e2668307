package httpapi

import (
	"encoding/json"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/models"
)

// reservedWrapperKeys are stripped from an MCP bridge tool call before the
// remainder is treated as the work envelope body.
var reservedWrapperKeys = []string{"signal", "_meta", "requestId", "progressToken"}

// envelopeContextDTO mirrors models.EnvelopeContext for wire decoding; a
// request may omit it entirely when the caller wants the connection-bound
// session reused.
type envelopeContextDTO struct {
	SessionID string          `json:"session_id"`
	Language  models.Language `json:"language"`
	Budget    int             `json:"budget"`
	TenantID  string          `json:"tenant_id"`
}

// payloadDTO is the work-envelope body minus its session context, named
// "payload" on the wire per spec §6.
type payloadDTO struct {
	Intent      string            `json:"intent"`
	Work        map[string]string `json:"work"`
	ContextInfo map[string]any    `json:"context_info"`
}

// orchestrateRequest is the decoded body of POST /eyes/overseer/orchestrate.
type orchestrateRequest struct {
	Context     *envelopeContextDTO `json:"context"`
	Payload     payloadDTO          `json:"payload"`
	ReasoningMD string              `json:"reasoning_md"`
	StrictMode  bool                `json:"strict_mode"`
}

// decodeOrchestrateBody unwraps an MCP bridge tool call if present (body
// carries a top-level "arguments" object) before parsing the envelope
// fields, per §6's wire-envelope rule. A bare REST body parses unchanged.
func decodeOrchestrateBody(raw []byte) (*orchestrateRequest, *apperror.Error) {
	var top map[string]any
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, apperror.New(apperror.CodeBadPayloadSchema, "malformed JSON body")
	}

	body := top
	if args, ok := top["arguments"].(map[string]any); ok {
		body = args
	}
	for _, key := range reservedWrapperKeys {
		delete(body, key)
	}
	if _, ok := body["payload"]; !ok {
		body["payload"] = map[string]any{}
	}

	reencoded, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.New(apperror.CodeBadPayloadSchema, "malformed envelope body")
	}

	var req orchestrateRequest
	if err := json.Unmarshal(reencoded, &req); err != nil {
		return nil, apperror.New(apperror.CodeBadPayloadSchema, "envelope body does not match expected shape")
	}
	return &req, nil
}

// toWorkEnvelope builds the Overseer's input type from a decoded request,
// falling back to the connection-bound session for an omitted context.
func (r *orchestrateRequest) toWorkEnvelope(sessionID, tenantID string) *models.WorkEnvelope {
	envCtx := models.EnvelopeContext{SessionID: sessionID, TenantID: tenantID}
	if r.Context != nil {
		if r.Context.SessionID != "" {
			envCtx.SessionID = r.Context.SessionID
		}
		envCtx.Language = r.Context.Language
		envCtx.Budget = r.Context.Budget
		if r.Context.TenantID != "" {
			envCtx.TenantID = r.Context.TenantID
		}
	}

	return &models.WorkEnvelope{
		Intent:      r.Payload.Intent,
		Work:        normalizeWork(r.Payload.Work),
		ContextInfo: r.Payload.ContextInfo,
		ReasoningMD: r.ReasoningMD,
		Context:     envCtx,
		StrictMode:  r.StrictMode,
	}
}

// normalizeWork converts any HTML-looking work content to markdown before
// it reaches an Eye. Hosts that paste rendered HTML (a browser DOM
// snapshot, an email body) would otherwise hand every downstream Eye raw
// markup; Eyes are written against markdown/plaintext intent text.
func normalizeWork(work map[string]string) map[string]string {
	if work == nil {
		return nil
	}
	normalized := make(map[string]string, len(work))
	for key, value := range work {
		normalized[key] = normalizeHTML(value)
	}
	return normalized
}

func normalizeHTML(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "<") {
		return value
	}
	md, err := htmltomarkdown.ConvertString(value)
	if err != nil {
		return value
	}
	return md
}
