package jobs

import (
	"context"
	"log/slog"

	"github.com/thirdeye/overseer/internal/security"
	"github.com/thirdeye/overseer/internal/session"
)

// ReclamationLoop sweeps expired Sessions and admin sessions. It is the
// Reclamation Loop named in the session lifecycle section of the spec,
// scheduled every ReclamationInterval.
type ReclamationLoop struct {
	sessions      *session.Store
	adminSessions *security.AdminSessionStore
	log           *slog.Logger
}

func NewReclamationLoop(sessions *session.Store, adminSessions *security.AdminSessionStore, log *slog.Logger) *ReclamationLoop {
	return &ReclamationLoop{sessions: sessions, adminSessions: adminSessions, log: log}
}

func (r *ReclamationLoop) Run(ctx context.Context) {
	removed := r.sessions.CleanupStale()
	adminRemoved := r.adminSessions.CleanupExpired()
	if removed > 0 || adminRemoved > 0 {
		r.log.Info("reclamation swept expired state", "sessions_removed", removed, "admin_sessions_removed", adminRemoved)
	}
}
