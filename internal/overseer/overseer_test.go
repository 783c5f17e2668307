package overseer

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/eyes"
	"github.com/thirdeye/overseer/internal/models"
	"github.com/thirdeye/overseer/internal/pipelinebus"
)

type stubRouter struct {
	decision RoutingDecision
	err      error
}

func (r *stubRouter) Route(ctx context.Context, req RoutingRequest) (RoutingDecision, error) {
	return r.decision, r.err
}

func newTestOverseer(t *testing.T, router RoutingClient) (*Overseer, *pipelinebus.Bus) {
	t.Helper()
	caps, err := eyes.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog: %v", err)
	}
	store := eyes.NewCapabilityStore(caps)
	registry := eyes.NewRegistry(time.Second)
	eyes.RegisterCatalog(registry, store)

	bus := pipelinebus.New()
	log := slog.New(slog.NewTextHandler(noopWriter{}, nil))
	return New(registry, router, bus, "route prompt", time.Second, log), bus
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }

func validEnvelope() *models.WorkEnvelope {
	return &models.WorkEnvelope{
		Intent:      "Add input validation to the signup handler for empty emails",
		Work:        map[string]string{"code": "x", "tests": "y"},
		ContextInfo: map[string]any{"project": "third-eye"},
		ReasoningMD: "Because the signup flow currently crashes on empty input.",
		StrictMode:  true,
	}
}

func TestOrchestrate_RejectsStrictModeShortReasoning(t *testing.T) {
	o, _ := newTestOverseer(t, &stubRouter{})
	envelope := validEnvelope()
	envelope.ReasoningMD = "short"

	_, err := o.Orchestrate(context.Background(), "s1", "t1", envelope)
	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected an *apperror.Error, got %v", err)
	}
	if appErr.Code != apperror.CodeBadPayloadSchema {
		t.Fatalf("expected CodeBadPayloadSchema, got %v", appErr.Code)
	}
}

func TestOrchestrate_RelaxedModeAcceptsMinimalIntent(t *testing.T) {
	o, _ := newTestOverseer(t, &stubRouter{decision: RoutingDecision{EyesNeeded: []string{}}})
	envelope := &models.WorkEnvelope{Intent: "test", StrictMode: false}

	result, err := o.Orchestrate(context.Background(), "s1", "t1", envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Code != models.OrchestrationNoValidation {
		t.Fatalf("expected no-validation-needed result, got %+v", result)
	}
}

func TestOrchestrate_EmptyRoutingWithWorkFallsBackToDefaultClarityEye(t *testing.T) {
	o, bus := newTestOverseer(t, &stubRouter{decision: RoutingDecision{EyesNeeded: []string{}}})
	envelope := validEnvelope()

	sub, cancel := bus.Subscribe("s1", 0)
	defer cancel()

	result, err := o.Orchestrate(context.Background(), "s1", "t1", envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Data["eyes_used"] == nil {
		t.Fatal("expected eyes_used to be recorded")
	}
	used := result.Data["eyes_used"].([]string)
	if len(used) != 1 || used[0] != eyes.DefaultClarityEye {
		t.Fatalf("expected fallback to the default clarity eye, got %v", used)
	}

	select {
	case ev := <-sub:
		if ev.Type != models.EventOrchestrationProgress {
			t.Fatalf("expected first event to be progress, got %v", ev.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for progress event")
	}
}

func TestOrchestrate_DropsUnknownRoutedEyeName(t *testing.T) {
	o, _ := newTestOverseer(t, &stubRouter{decision: RoutingDecision{EyesNeeded: []string{"ghost", "sharingan"}}})
	envelope := validEnvelope()

	result, err := o.Orchestrate(context.Background(), "s1", "t1", envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	used := result.Data["eyes_used"].([]string)
	for _, name := range used {
		if name == "ghost" {
			t.Fatal("expected unknown eye name to be dropped")
		}
	}
}

func TestOrchestrate_RoutingFailureReturnsLLMError(t *testing.T) {
	o, _ := newTestOverseer(t, &stubRouter{err: errors.New("provider unreachable")})
	envelope := validEnvelope()

	_, err := o.Orchestrate(context.Background(), "s1", "t1", envelope)
	appErr, ok := apperror.As(err)
	if !ok {
		t.Fatalf("expected an *apperror.Error, got %v", err)
	}
	if appErr.Code != apperror.CodeLLMError {
		t.Fatalf("expected CodeLLMError, got %v", appErr.Code)
	}
}

func TestOrchestrate_ShortCircuitsOnClarificationRequired(t *testing.T) {
	o, _ := newTestOverseer(t, &stubRouter{decision: RoutingDecision{EyesNeeded: []string{"sharingan", "jogan"}}})
	envelope := validEnvelope()
	envelope.Intent = "fix it"
	envelope.StrictMode = false

	result, err := o.Orchestrate(context.Background(), "s1", "t1", envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.NextAction != models.NextActionSubmitClarifications {
		t.Fatalf("expected submit_clarifications next action, got %q", result.NextAction)
	}
	if result.Code != models.OrchestrationAwaitingInput {
		t.Fatalf("expected AWAITING_USER_INPUT code, got %q", result.Code)
	}
}

func TestOrchestrate_FullChainSucceeds(t *testing.T) {
	o, _ := newTestOverseer(t, &stubRouter{decision: RoutingDecision{
		EyesNeeded: []string{"sharingan", "jogan", "rinnegan", "mangekyo", "tenseigan", "byakugan"},
	}})
	envelope := validEnvelope()

	result, err := o.Orchestrate(context.Background(), "s1", "t1", envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected a fully passing chain, got %+v", result)
	}
	if result.Code != models.OrchestrationOKAll {
		t.Fatalf("expected OK_ALL, got %q", result.Code)
	}
}

func TestOrchestrate_InjectsConnectionBoundSessionIDWhenMissing(t *testing.T) {
	o, _ := newTestOverseer(t, &stubRouter{decision: RoutingDecision{EyesNeeded: []string{}}})
	envelope := &models.WorkEnvelope{Intent: "test", StrictMode: false}

	_, err := o.Orchestrate(context.Background(), "connection-session", "t1", envelope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if envelope.Context.SessionID != "connection-session" {
		t.Fatalf("expected session id to be injected, got %q", envelope.Context.SessionID)
	}
}
