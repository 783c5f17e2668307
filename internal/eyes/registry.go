// Package eyes implements the Eye capability contract and the registry
// that maps an Eye name to an invocation, enforcing per-Eye timeouts,
// cancellation propagation, and phase-gate discipline before dispatch.
package eyes

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/thirdeye/overseer/internal/apperror"
	"github.com/thirdeye/overseer/internal/models"
)

const healthCacheTTL = 30 * time.Second

// Registry holds every registered Eye plus per-session phase-completion
// state. Invoke is the sole dispatch path: it enforces phase requirements,
// wraps the call in a per-Eye timeout, and marks provided phases complete
// on success.
type Registry struct {
	mu            sync.RWMutex
	eyes          map[string]Eye
	phaseToEyes   map[PipelinePhase][]string
	sessionPhases map[string]PhaseSet

	defaultTimeout time.Duration
	healthCache    *cache.Cache
}

func NewRegistry(defaultTimeout time.Duration) *Registry {
	return &Registry{
		eyes:           make(map[string]Eye),
		phaseToEyes:    make(map[PipelinePhase][]string),
		sessionPhases:  make(map[string]PhaseSet),
		defaultTimeout: defaultTimeout,
		healthCache:    cache.New(healthCacheTTL, healthCacheTTL*2),
	}
}

// Register adds an Eye to the catalog, indexed by its declared phase.
// Re-registering a name overwrites the previous entry, logged as such.
func (r *Registry) Register(eye Eye) {
	capability := eye.Describe()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.eyes[capability.Name]; exists {
		slog.Warn("eye already registered, overwriting", "eye", capability.Name)
	}
	r.eyes[capability.Name] = eye
	r.phaseToEyes[capability.Phase] = append(r.phaseToEyes[capability.Phase], capability.Name)
}

// Reindex rebuilds the phase-to-eyes index from each registered Eye's
// current Describe() output. Call after a catalog reload changes which
// phase an Eye declares, since Register only indexed it once.
func (r *Registry) Reindex() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.phaseToEyes = make(map[PipelinePhase][]string)
	for name, eye := range r.eyes {
		phase := eye.Describe().Phase
		r.phaseToEyes[phase] = append(r.phaseToEyes[phase], name)
	}
}

// Get returns the Eye registered under name.
func (r *Registry) Get(name string) (Eye, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eye, ok := r.eyes[name]
	return eye, ok
}

// GetByPhase returns the capabilities of every Eye registered for a phase.
func (r *Registry) GetByPhase(phase PipelinePhase) []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.phaseToEyes[phase]
	caps := make([]Capability, 0, len(names))
	for _, name := range names {
		if eye, ok := r.eyes[name]; ok {
			caps = append(caps, eye.Describe())
		}
	}
	return caps
}

// ListAvailable returns the names of Eyes whose required phases are all
// completed for the given session.
func (r *Registry) ListAvailable(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	completed := r.sessionPhases[sessionID]
	var available []string
	for name, eye := range r.eyes {
		if eye.Describe().RequiresPhases.Subset(completed) {
			available = append(available, name)
		}
	}
	return available
}

// CanInvoke reports whether name's phase requirements are satisfied for
// sessionID, and a human-readable reason when they are not.
func (r *Registry) CanInvoke(name, sessionID string) (bool, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	eye, ok := r.eyes[name]
	if !ok {
		return false, fmt.Sprintf("unknown eye: %s", name)
	}

	completed := r.sessionPhases[sessionID]
	missing := eye.Describe().RequiresPhases.Missing(completed)
	if len(missing) > 0 {
		return false, fmt.Sprintf("missing required phases: %v", missing)
	}
	return true, "OK"
}

func (r *Registry) markPhasesComplete(sessionID string, phases PhaseSet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessionPhases[sessionID] == nil {
		r.sessionPhases[sessionID] = make(PhaseSet)
	}
	for p := range phases {
		r.sessionPhases[sessionID][p] = struct{}{}
	}
}

// GetCompletedPhases returns a copy of the phases completed for a session.
func (r *Registry) GetCompletedPhases(sessionID string) PhaseSet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(PhaseSet, len(r.sessionPhases[sessionID]))
	for p := range r.sessionPhases[sessionID] {
		out[p] = struct{}{}
	}
	return out
}

// ResetSession clears a session's phase-completion state.
func (r *Registry) ResetSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessionPhases, sessionID)
}

// Invoke dispatches to the named Eye with phase-gate enforcement, a
// per-Eye timeout, and cancellation propagated from ctx. On success, every
// phase the Eye provides is marked complete for the session.
func (r *Registry) Invoke(ctx context.Context, name string, ic InvocationContext, envelope *models.WorkEnvelope) (*models.EyeResult, error) {
	r.mu.RLock()
	eye, ok := r.eyes[name]
	r.mu.RUnlock()
	if !ok {
		return nil, apperror.New(apperror.CodeBadPayloadSchema, fmt.Sprintf("unknown eye: %s", name))
	}

	capability := eye.Describe()

	if ok, reason := r.CanInvoke(name, ic.SessionID); !ok {
		return nil, apperror.New(apperror.CodeOrchestrationFailed, reason)
	}

	if capability.RequiresReasoning && ic.ReasoningMD == "" {
		return nil, apperror.New(apperror.CodeBadPayloadSchema, fmt.Sprintf("eye %q requires reasoning_md", name))
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.defaultTimeout)
	defer cancel()

	result, err := eye.Invoke(timeoutCtx, ic, envelope)
	if err != nil {
		if timeoutCtx.Err() != nil {
			return nil, apperror.Wrap(apperror.CodeLLMError, "eye invocation timed out", timeoutCtx.Err())
		}
		return nil, apperror.Wrap(apperror.CodeOrchestrationFailed, fmt.Sprintf("eye %q failed", name), err)
	}

	if result.OK != nil && *result.OK {
		r.markPhasesComplete(ic.SessionID, capability.ProvidesPhases)
	}

	return result, nil
}

// Health returns a cached health result for name, probing at most once
// per healthCacheTTL.
func (r *Registry) Health(ctx context.Context, name string) (bool, string) {
	if cached, found := r.healthCache.Get(name); found {
		h := cached.(healthResult)
		return h.ok, h.detail
	}

	eye, ok := r.Get(name)
	if !ok {
		return false, "unknown eye"
	}

	ok2, detail := eye.Health(ctx)
	r.healthCache.Set(name, healthResult{ok: ok2, detail: detail}, cache.DefaultExpiration)
	return ok2, detail
}

type healthResult struct {
	ok     bool
	detail string
}
