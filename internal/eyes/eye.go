package eyes

import (
	"context"

	"github.com/thirdeye/overseer/internal/models"
)

// InvocationContext carries the session-scoped state an Eye needs but
// doesn't own: which session/tenant it's running for, and the reasoning
// the caller attached to this step.
type InvocationContext struct {
	SessionID   string
	TenantID    string
	ReasoningMD string
}

// Eye is the capability contract every validator implements. An Eye is any
// value satisfying this interface; registering a new Eye is registering a
// new implementation, not editing a dispatch table.
type Eye interface {
	Describe() Capability
	Invoke(ctx context.Context, ic InvocationContext, envelope *models.WorkEnvelope) (*models.EyeResult, error)
	Health(ctx context.Context) (bool, string)
}
