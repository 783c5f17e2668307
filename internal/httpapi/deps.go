// Package httpapi is the Request Front-End: the HTTP and WebSocket surface
// a host (or the MCP bridge in front of it) talks to. Every handler here
// does, in order, what the rest of the service never does on its own
// behalf: resolve the caller's identity, gate it on quota, unwrap whatever
// envelope shape arrived, and translate the typed result or apperror back
// into the wire shape §6 promises. Nothing below the Overseer ever sees an
// HTTP request directly.
package httpapi

import (
	"log/slog"
	"time"

	"github.com/thirdeye/overseer/internal/config"
	"github.com/thirdeye/overseer/internal/database"
	"github.com/thirdeye/overseer/internal/overseer"
	"github.com/thirdeye/overseer/internal/pipelinebus"
	"github.com/thirdeye/overseer/internal/provider"
	"github.com/thirdeye/overseer/internal/quota"
	"github.com/thirdeye/overseer/internal/security"
	"github.com/thirdeye/overseer/internal/services"
	"github.com/thirdeye/overseer/internal/session"
)

// Dependencies bundles every service a Front-End handler may need. One
// instance is built in main and threaded into RegisterRoutes; handlers
// never reach for a package-level global.
type Dependencies struct {
	Config *config.Config
	Log    *slog.Logger

	Overseer     *overseer.Overseer
	Sessions     *session.Store
	Bus          *pipelinebus.Bus
	Admitter     *quota.Admitter
	QuotaManager quota.Manager
	TenantLimits *quota.TenantLimitStore

	APIKeys  *services.APIKeyService
	Accounts *services.AdminAccountService
	Metrics  *services.Metrics

	AdminSessions *security.AdminSessionStore
	CSRF          *security.CSRFGuard

	ProviderHealth *provider.HealthChecker
	Mongo          *database.MongoDB
	RelationalDB   *database.DB
	AuditLog       *database.AuditLog
}

func (d *Dependencies) sessionTTL() time.Duration {
	if d.Config == nil {
		return 7 * 24 * time.Hour
	}
	return d.Config.SessionTTL
}
