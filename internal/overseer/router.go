package overseer

import "context"

// RoutingRequest is what the Overseer asks its routing Eye to decide on:
// enough of the envelope to pick an ordered Eye sequence, nothing more.
type RoutingRequest struct {
	Intent          string
	WorkKinds       []string
	ContextSummary  string
	CompletedPhases []string
	Prompt          string
}

// RoutingDecision is the routing Eye's answer: which Eyes to run, in
// order, and why.
type RoutingDecision struct {
	EyesNeeded []string
	Reasoning  string
	Analysis   string
}

// RoutingClient produces a routing decision for a validated envelope. The
// Overseer depends on this interface, not a concrete provider, so it can
// be exercised with a stub in tests and wired to the real LLM-backed
// client at startup.
type RoutingClient interface {
	Route(ctx context.Context, req RoutingRequest) (RoutingDecision, error)
}
