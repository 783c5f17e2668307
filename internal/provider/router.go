package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thirdeye/overseer/internal/overseer"
)

// Router implements overseer.RoutingClient against a real LLM provider:
// it asks the provider, using the configured routing prompt, which Eyes
// the work envelope needs and in what order.
type Router struct {
	client *Client
}

func NewRouter(client *Client) *Router {
	return &Router{client: client}
}

type routingResponse struct {
	EyesNeeded []string `json:"eyes_needed"`
	Reasoning  string   `json:"reasoning"`
	Analysis   string   `json:"analysis"`
}

// Route asks the provider for an ordered Eye sequence. Any provider
// failure surfaces as a classified *CallError for the Overseer to wrap
// as E_LLM_ERROR.
func (r *Router) Route(ctx context.Context, req overseer.RoutingRequest) (overseer.RoutingDecision, error) {
	content, err := r.client.Complete(ctx, []Message{
		{Role: "system", Content: req.Prompt},
		{Role: "user", Content: buildRoutingUserMessage(req)},
	})
	if err != nil {
		return overseer.RoutingDecision{}, err
	}

	decoded, parseErr := parseRoutingResponse(content)
	if parseErr != nil {
		return overseer.RoutingDecision{}, parseErr
	}

	return overseer.RoutingDecision{
		EyesNeeded: decoded.EyesNeeded,
		Reasoning:  decoded.Reasoning,
		Analysis:   decoded.Analysis,
	}, nil
}

func buildRoutingUserMessage(req overseer.RoutingRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent: %s\n", req.Intent)
	fmt.Fprintf(&b, "Work kinds: %v\n", req.WorkKinds)
	fmt.Fprintf(&b, "Context: %s\n", req.ContextSummary)
	fmt.Fprintf(&b, "Phases already completed this session: %v\n", req.CompletedPhases)
	b.WriteString("Respond with JSON: {\"eyes_needed\": [...], \"reasoning\": \"...\", \"analysis\": \"...\"}")
	return b.String()
}

// parseRoutingResponse tolerates a provider that wraps its JSON in a
// markdown code fence, which chat models do constantly despite being
// told not to.
func parseRoutingResponse(content string) (routingResponse, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var decoded routingResponse
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		return routingResponse{}, fmt.Errorf("unmarshal routing response: %w", err)
	}
	return decoded, nil
}
