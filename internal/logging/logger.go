package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithSession returns a logger with session context fields attached.
// Use this for all logging within one orchestration request.
func WithSession(sessionID, tenantID string) *slog.Logger {
	return slog.With(
		"session_id", sessionID,
		"tenant_id", tenantID,
	)
}

// WithEye returns a logger scoped to a single Eye invocation within a
// pipeline run. step is the Eye's 1-based position in the routing
// decision's eye order, not a PipelinePhase.
func WithEye(logger *slog.Logger, eyeName string, step int) *slog.Logger {
	return logger.With(
		"eye", eyeName,
		"step", step,
	)
}
