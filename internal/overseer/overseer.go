// Package overseer turns a validated Work Envelope into an ordered
// sequence of Eye invocations and a consolidated verdict, publishing
// progress to the pipeline bus as it goes.
package overseer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/eyes"
	"github.com/thirdeye/overseer/internal/models"
	"github.com/thirdeye/overseer/internal/pipelinebus"
)

// Overseer is the request-routing brain: it validates the envelope, asks
// a RoutingClient which Eyes to run, executes them sequentially through
// an eyes.Registry, and aggregates their results.
type Overseer struct {
	registry      *eyes.Registry
	router        RoutingClient
	bus           *pipelinebus.Bus
	routingPrompt string
	routingTimeout time.Duration
	log           *slog.Logger
}

func New(registry *eyes.Registry, router RoutingClient, bus *pipelinebus.Bus, routingPrompt string, routingTimeout time.Duration, log *slog.Logger) *Overseer {
	if log == nil {
		log = slog.Default()
	}
	return &Overseer{
		registry:       registry,
		router:         router,
		bus:            bus,
		routingPrompt:  routingPrompt,
		routingTimeout: routingTimeout,
		log:            log,
	}
}

// Orchestrate runs orchestrate(envelope, strict_mode) per the Overseer's
// contract. sessionID is the connection-bound session to fall back to
// when the envelope carries none of its own.
func (o *Overseer) Orchestrate(ctx context.Context, sessionID, tenantID string, envelope *models.WorkEnvelope) (*models.OrchestrationResult, error) {
	if envelope.Context.SessionID == "" {
		envelope.Context.SessionID = sessionID
	}
	sid := envelope.Context.SessionID

	if failure := validateEnvelope(envelope, envelope.StrictMode); failure != nil {
		hint := fmt.Sprintf("%s; first failing field: %s", strings.Join(failure.Errors, "; "), failure.Field)
		return nil, apperror.New(apperror.CodeBadPayloadSchema, hint)
	}

	if withinBudget, estimated := checkTokenBudget(envelope); !withinBudget {
		return nil, apperror.New(apperror.CodeBadPayloadSchema,
			fmt.Sprintf("envelope estimated at %d tokens exceeds session token_budget of %d", estimated, envelope.Context.Budget))
	}

	fingerprint := fingerprintEnvelope(envelope)

	decision, err := o.route(ctx, envelope)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeLLMError, "routing decision failed; invoke Eyes directly as a fallback", err)
	}

	eyesNeeded := o.resolveEyeNames(decision.EyesNeeded, envelope)

	if len(eyesNeeded) == 0 {
		if len(envelope.Work) == 0 {
			return &models.OrchestrationResult{
				OK:      true,
				Code:    models.OrchestrationNoValidation,
				Summary: "Request is clear and requires no validation.",
				Data: map[string]any{
					"analysis":             decision.Analysis,
					"reasoning":            decision.Reasoning,
					"envelope_fingerprint": fingerprint,
				},
				NextAction: models.NextActionNoValidationNeeded,
			}, nil
		}
		eyesNeeded = []string{eyes.DefaultClarityEye}
	}

	result, err := o.runPipeline(ctx, sid, tenantID, envelope, decision, eyesNeeded)
	if err != nil || result == nil {
		return result, err
	}
	result.Data["envelope_fingerprint"] = fingerprint
	return result, nil
}

func (o *Overseer) route(ctx context.Context, envelope *models.WorkEnvelope) (RoutingDecision, error) {
	routeCtx, cancel := context.WithTimeout(ctx, o.routingTimeout)
	defer cancel()

	workKinds := make([]string, 0, len(envelope.Work))
	for kind := range envelope.Work {
		workKinds = append(workKinds, kind)
	}

	req := RoutingRequest{
		Intent:          envelope.Intent,
		WorkKinds:       workKinds,
		ContextSummary:  summarizeContext(envelope.ContextInfo),
		CompletedPhases: phaseNames(o.registry.GetCompletedPhases(envelope.Context.SessionID)),
		Prompt:          o.routingPrompt,
	}

	return o.router.Route(routeCtx, req)
}

// resolveEyeNames deduplicates the routing decision's names preserving
// first occurrence, dropping unknown names rather than failing.
func (o *Overseer) resolveEyeNames(names []string, envelope *models.WorkEnvelope) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := o.registry.Get(name); !ok {
			o.log.Warn("routing named an unknown eye, dropping", "eye", name)
			continue
		}
		out = append(out, name)
	}
	return out
}

func phaseNames(set eyes.PhaseSet) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, string(p))
	}
	return out
}

func summarizeContext(contextInfo map[string]any) string {
	if len(contextInfo) == 0 {
		return ""
	}
	keys := make([]string, 0, len(contextInfo))
	for k := range contextInfo {
		keys = append(keys, k)
	}
	return fmt.Sprintf("context keys: %v", keys)
}
