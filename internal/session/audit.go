package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// auditSchema is applied on startup. Append-only: one row per
// completed exchange, with the extraction report snapshotted as JSONB.
const auditSchema = `
CREATE TABLE IF NOT EXISTS engagement_turns (
	id              BIGSERIAL PRIMARY KEY,
	session_id      TEXT        NOT NULL,
	turn            INT         NOT NULL,
	persona         TEXT        NOT NULL,
	strategy        TEXT        NOT NULL,
	language        TEXT        NOT NULL,
	scammer_message TEXT        NOT NULL,
	agent_reply     TEXT        NOT NULL,
	scam_confidence DOUBLE PRECISION NOT NULL,
	intelligence    JSONB       NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_engagement_turns_session
	ON engagement_turns (session_id, turn);
`

// AuditStore is an optional Postgres write-through that preserves
// every exchange beyond the Redis TTL. Writes are best-effort and
// asynchronous; an audit failure never fails an engagement.
type AuditStore struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	timeout time.Duration
}

// NewAuditStore connects to Postgres and ensures the audit schema
// exists.
func NewAuditStore(ctx context.Context, dsn string, logger *slog.Logger) (*AuditStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, auditSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply audit schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &AuditStore{
		pool:    pool,
		logger:  logger,
		timeout: 5 * time.Second,
	}, nil
}

// RecordExchange inserts one completed exchange. It runs in the
// caller's goroutine with its own deadline; the orchestrator invokes
// it off the request path.
func (a *AuditStore) RecordExchange(ctx context.Context, sess *Session, inbound, reply string) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	intel, err := json.Marshal(sess.Intelligence)
	if err != nil {
		a.logger.Error("audit: marshal intelligence", "session_id", sess.ID, "error", err)
		return
	}

	_, err = a.pool.Exec(ctx, `
		INSERT INTO engagement_turns
			(session_id, turn, persona, strategy, language,
			 scammer_message, agent_reply, scam_confidence, intelligence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sess.ID, sess.TurnCount, sess.Persona, sess.Strategy, sess.Language,
		inbound, reply, sess.ScamConfidence, intel,
	)
	if err != nil {
		a.logger.Error("audit: insert exchange failed",
			"session_id", sess.ID, "turn", sess.TurnCount, "error", err)
	}
}

// Ping verifies the Postgres connection.
func (a *AuditStore) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (a *AuditStore) Close() {
	a.pool.Close()
}
