package db

import (
	"context"
	"fmt"
)

// migrations are idempotent and applied in order on every start.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS passcode_records (
		id          TEXT PRIMARY KEY,
		identifier  TEXT NOT NULL,
		channel     SMALLINT NOT NULL,
		code_digest TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL,
		verified    BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	// one live record per pair; issuance replaces it inside a transaction
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_passcode_records_pair ON passcode_records (identifier, channel)`,
	`CREATE INDEX IF NOT EXISTS idx_passcode_records_expires_at ON passcode_records (expires_at)`,
	`CREATE TABLE IF NOT EXISTS passcode_accounts (
		id           BIGINT PRIMARY KEY,
		identifier   TEXT NOT NULL,
		channel      SMALLINT NOT NULL,
		confirmed_at TIMESTAMPTZ NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		CONSTRAINT uq_passcode_accounts_pair UNIQUE (identifier, channel)
	)`,
}

// EnsureSchema creates the passcode tables and indexes when missing.
func (s *DB) EnsureSchema(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "EnsureSchema")
	defer func() { s.endSpan(span, err) }()

	for i, m := range migrations {
		if _, err = s.conn.Exec(ctx, m); err != nil {
			return fmt.Errorf("apply migration %d: %w", i, err)
		}
	}
	return nil
}
