package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/thirdeye/overseer/internal/models"
)

// AuditLog persists session snapshots and pipeline events to the relational
// store's sessions/audit_events tables. Writes are best-effort from the
// caller's perspective: a failed audit write never blocks an orchestration
// response, it only loses a row of history.
//
// Event payloads can carry a full envelope plus every Eye's verbose
// output, so they are zstd-compressed before the row is written; the
// sessions table holds small, frequently-updated fields and is left
// uncompressed.
type AuditLog struct {
	db  *DB
	enc *zstd.Encoder
}

func NewAuditLog(db *DB) *AuditLog {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		// zstd.NewWriter(nil, ...) only fails on an invalid option, never at
		// runtime for the options used here.
		panic(fmt.Sprintf("construct audit log zstd encoder: %v", err))
	}
	return &AuditLog{db: db, enc: enc}
}

// RecordSession upserts a point-in-time snapshot of a session row.
func (a *AuditLog) RecordSession(ctx context.Context, sess *models.Session) error {
	completedPhases, err := json.Marshal(sess.CompletedPhases)
	if err != nil {
		return fmt.Errorf("marshal completed phases: %w", err)
	}
	contextInfo, err := json.Marshal(sess.ContextInfo)
	if err != nil {
		return fmt.Errorf("marshal context info: %w", err)
	}

	switch a.db.driver {
	case "mysql":
		_, err = a.db.ExecContext(ctx,
			`INSERT INTO sessions (session_id, tenant_id, created_at, last_activity_at, expires_at, completed_phases, context_info, token_budget)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON DUPLICATE KEY UPDATE tenant_id=VALUES(tenant_id), last_activity_at=VALUES(last_activity_at),
			   expires_at=VALUES(expires_at), completed_phases=VALUES(completed_phases),
			   context_info=VALUES(context_info), token_budget=VALUES(token_budget)`,
			sess.ID, sess.TenantID, sess.CreatedAt, sess.LastActivityAt, sess.ExpiresAt, completedPhases, contextInfo, sess.TokenBudget,
		)
	default:
		_, err = a.db.ExecContext(ctx,
			`INSERT INTO sessions (session_id, tenant_id, created_at, last_activity_at, expires_at, completed_phases, context_info, token_budget)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(session_id) DO UPDATE SET tenant_id=excluded.tenant_id, last_activity_at=excluded.last_activity_at,
			   expires_at=excluded.expires_at, completed_phases=excluded.completed_phases,
			   context_info=excluded.context_info, token_budget=excluded.token_budget`,
			sess.ID, sess.TenantID, sess.CreatedAt, sess.LastActivityAt, sess.ExpiresAt, completedPhases, contextInfo, sess.TokenBudget,
		)
	}
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// RecordEvent appends one pipeline event to the audit trail, fingerprinted
// so a later investigation can tie an event back to the envelope that
// produced it.
func (a *AuditLog) RecordEvent(ctx context.Context, event models.PipelineEvent, fingerprint string) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	compressed := a.enc.EncodeAll(payload, make([]byte, 0, len(payload)))

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO audit_events (session_id, sequence, event_type, payload, fingerprint) VALUES (?, ?, ?, ?, ?)`,
		event.SessionID, event.Sequence, string(event.Type), compressed, fingerprint,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
