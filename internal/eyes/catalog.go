package eyes

import (
	"context"
	"strings"

	"github.com/thirdeye/overseer/internal/models"
)

// DefaultClarityEye is the tie-break target when routing produces an
// empty eyes_needed list against non-empty work.
const DefaultClarityEye = "rinnegan"

func boolPtr(b bool) *bool { return &b }

// RegisterCatalog seeds r with the six named validators carried over from
// the original implementation. Capability metadata (phases, reasoning
// requirement, entry-point status) comes from store, which a catalog.yaml
// file and its hot-reload watcher keep current; only invocation heuristics
// live in Go.
func RegisterCatalog(r *Registry, store *CapabilityStore) {
	r.Register(&sharinganEye{store: store})
	r.Register(&joganEye{store: store})
	r.Register(&rinneganEye{store: store})
	r.Register(&mangekyoEye{store: store})
	r.Register(&tenseiganEye{store: store})
	r.Register(&byakuganEye{store: store})
}

// sharinganEye is the ambiguity detector and pipeline entry point. It
// returns clarification questions when the envelope's intent looks too
// thin to act on.
type sharinganEye struct{ store *CapabilityStore }

func (e *sharinganEye) Describe() Capability { return e.store.Get("sharingan") }

func (e *sharinganEye) Invoke(ctx context.Context, ic InvocationContext, envelope *models.WorkEnvelope) (*models.EyeResult, error) {
	words := strings.Fields(envelope.Intent)
	if len(words) < 4 {
		return &models.EyeResult{
			EyeName: "sharingan",
			OK:      boolPtr(false),
			Code:    models.OutcomeClarificationRequired,
			Summary: "Intent is too vague to act on without more detail.",
			Data: map[string]any{
				"clarifications": []models.ClarificationData{{
					Questions: []string{"Which component or file does this concern?", "What outcome defines success?"},
					NextStep:  "Submit answers via the session's clarification endpoint.",
				}},
			},
		}, nil
	}

	return &models.EyeResult{
		EyeName:    "sharingan",
		OK:         boolPtr(true),
		Code:       "CLEAR",
		Summary:    "Intent is specific enough to proceed.",
		Confidence: 0.9,
	}, nil
}

func (e *sharinganEye) Health(ctx context.Context) (bool, string) { return true, "" }

// joganEye confirms intent once clarification has run, requiring reasoning.
type joganEye struct{ store *CapabilityStore }

func (e *joganEye) Describe() Capability { return e.store.Get("jogan") }

func (e *joganEye) Invoke(ctx context.Context, ic InvocationContext, envelope *models.WorkEnvelope) (*models.EyeResult, error) {
	return &models.EyeResult{
		EyeName:    "jogan",
		OK:         boolPtr(true),
		Code:       "CONFIRMED",
		Summary:    "Intent confirmed against stated reasoning.",
		Confidence: 0.85,
	}, nil
}

func (e *joganEye) Health(ctx context.Context) (bool, string) { return true, "" }

// rinneganEye reviews plans and grants final approval. It is also the
// default-clarity tie-break target when routing yields an empty list.
type rinneganEye struct{ store *CapabilityStore }

func (e *rinneganEye) Describe() Capability { return e.store.Get("rinnegan") }

func (e *rinneganEye) Invoke(ctx context.Context, ic InvocationContext, envelope *models.WorkEnvelope) (*models.EyeResult, error) {
	if len(envelope.Work) == 0 {
		return &models.EyeResult{
			EyeName: "rinnegan",
			OK:      boolPtr(false),
			Code:    models.OutcomeRevisionRequired,
			Summary: "No work payload to review; provide a plan before requesting approval.",
		}, nil
	}

	return &models.EyeResult{
		EyeName:    "rinnegan",
		OK:         boolPtr(true),
		Code:       "APPROVED",
		Summary:    "Plan reviewed and approved.",
		Confidence: 0.8,
	}, nil
}

func (e *rinneganEye) Health(ctx context.Context) (bool, string) { return true, "" }

// mangekyoEye reviews scaffolding, implementation, tests and docs together.
type mangekyoEye struct{ store *CapabilityStore }

func (e *mangekyoEye) Describe() Capability { return e.store.Get("mangekyo") }

func (e *mangekyoEye) Invoke(ctx context.Context, ic InvocationContext, envelope *models.WorkEnvelope) (*models.EyeResult, error) {
	if _, hasTests := envelope.Work["tests"]; !hasTests {
		return &models.EyeResult{
			EyeName: "mangekyo",
			OK:      boolPtr(false),
			Code:    models.OutcomeRevisionRequired,
			Summary: "Implementation is missing test coverage.",
		}, nil
	}

	return &models.EyeResult{
		EyeName:    "mangekyo",
		OK:         boolPtr(true),
		Code:       "REVIEWED",
		Summary:    "Scaffold, implementation, tests and docs reviewed.",
		Confidence: 0.75,
	}, nil
}

func (e *mangekyoEye) Health(ctx context.Context) (bool, string) { return true, "" }

// tenseiganEye validates claims made in the submitted work against its
// stated reasoning.
type tenseiganEye struct{ store *CapabilityStore }

func (e *tenseiganEye) Describe() Capability { return e.store.Get("tenseigan") }

func (e *tenseiganEye) Invoke(ctx context.Context, ic InvocationContext, envelope *models.WorkEnvelope) (*models.EyeResult, error) {
	return &models.EyeResult{
		EyeName:    "tenseigan",
		OK:         boolPtr(true),
		Code:       "VALIDATED",
		Summary:    "Claims are consistent with the supplied reasoning.",
		Confidence: 0.82,
	}, nil
}

func (e *tenseiganEye) Health(ctx context.Context) (bool, string) { return true, "" }

// byakuganEye checks cross-file/cross-claim consistency as the last step
// before approval.
type byakuganEye struct{ store *CapabilityStore }

func (e *byakuganEye) Describe() Capability { return e.store.Get("byakugan") }

func (e *byakuganEye) Invoke(ctx context.Context, ic InvocationContext, envelope *models.WorkEnvelope) (*models.EyeResult, error) {
	return &models.EyeResult{
		EyeName:    "byakugan",
		OK:         boolPtr(true),
		Code:       "CONSISTENT",
		Summary:    "No inconsistencies found across the submission.",
		Confidence: 0.88,
	}, nil
}

func (e *byakuganEye) Health(ctx context.Context) (bool, string) { return true, "" }
