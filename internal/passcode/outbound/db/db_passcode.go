package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/goerror"
	"github.com/jackc/pgx/v5"
)

const (
	queryUpsertPasscode = `INSERT INTO passcode_records
		(id, identifier, channel, code_digest, created_at, expires_at, verified)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (identifier, channel) DO UPDATE SET
			id = EXCLUDED.id,
			code_digest = EXCLUDED.code_digest,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			verified = FALSE`

	queryGetActivePasscode = `SELECT id, identifier, channel, code_digest, created_at, expires_at, verified
		FROM passcode_records
		WHERE identifier = $1 AND channel = $2 AND verified = FALSE AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1`

	queryClaimPasscode = `UPDATE passcode_records SET verified = TRUE
		WHERE id = $1 AND verified = FALSE AND expires_at > $2`

	queryDeletePasscodeByID = `DELETE FROM passcode_records WHERE id = $1`

	queryDeleteExpiredPasscodes = `DELETE FROM passcode_records WHERE expires_at <= $1`
)

// ReplacePasscode overwrites the pair's record with p in one statement.
// Overlapping calls for the same pair serialize on the unique index and the
// last one to commit wins.
func (s *DB) ReplacePasscode(ctx context.Context, p entity.Passcode) (err error) {
	ctx, span := s.startSpan(ctx, "ReplacePasscode")
	defer func() { s.endSpan(span, err) }()

	if _, err = s.conn.Exec(ctx, queryUpsertPasscode,
		p.ID, p.Identifier, int16(p.Channel), p.CodeDigest, p.CreatedAt, p.ExpiresAt,
	); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) GetActivePasscode(ctx context.Context, identifier string, ch entity.Channel, now time.Time) (_ *entity.Passcode, err error) {
	ctx, span := s.startSpan(ctx, "GetActivePasscode")
	defer func() { s.endSpan(span, err) }()

	var (
		p       entity.Passcode
		channel int16
	)
	err = s.conn.QueryRow(ctx, queryGetActivePasscode, identifier, int16(ch), now).Scan(
		&p.ID, &p.Identifier, &channel, &p.CodeDigest, &p.CreatedAt, &p.ExpiresAt, &p.Verified,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	p.Channel = entity.Channel(channel)

	return &p, nil
}

// ClaimPasscode flips verified on the record only while it is unverified and
// unexpired, then deletes it. Losing the conditional update yields
// goerror.ErrNotFound.
func (s *DB) ClaimPasscode(ctx context.Context, id string, now time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "ClaimPasscode")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	tag, err := tx.Exec(ctx, queryClaimPasscode, id, now)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	if _, err = tx.Exec(ctx, queryDeletePasscodeByID, id); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) DeleteExpiredPasscodes(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredPasscodes")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryDeleteExpiredPasscodes, before)
	if err != nil {
		err = s.mapError(err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
