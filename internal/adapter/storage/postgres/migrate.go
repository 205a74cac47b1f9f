package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id              UUID PRIMARY KEY,
		account_number  CHAR(16) NOT NULL UNIQUE CHECK (account_number ~ '^8[0-9]{15}$'),
		name            TEXT NOT NULL UNIQUE,
		credential_hash TEXT NOT NULL,
		balance         NUMERIC(20, 2) NOT NULL CHECK (balance >= 0),
		status          TEXT NOT NULL DEFAULT 'ACTIVE',
		last_login_at   TIMESTAMPTZ,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_created_at ON accounts (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          UUID PRIMARY KEY,
		account_id  UUID,
		action      TEXT NOT NULL,
		resource_id TEXT,
		details     JSONB,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_account ON audit_logs (account_id, created_at DESC)`,
}

// Migrate creates the tables the repositories need. It is idempotent and
// runs in a single transaction.
func Migrate(ctx context.Context, pool Pool, log zerolog.Logger) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for i, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}

	log.Info().Int("statements", len(schema)).Msg("database schema is up to date")
	return nil
}
