package db

import (
	"context"

	"github.com/baginvent/passcode/internal/passcode/entity"
)

const (
	queryGetAccount = `SELECT id, identifier, channel, confirmed_at, created_at
		FROM passcode_accounts
		WHERE identifier = $1 AND channel = $2`

	queryCreateAccount = `INSERT INTO passcode_accounts (id, identifier, channel, confirmed_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`
)

func (s *DB) GetAccount(ctx context.Context, identifier string, ch entity.Channel) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccount")
	defer func() { s.endSpan(span, err) }()

	var (
		a       entity.Account
		channel int16
	)
	err = s.conn.QueryRow(ctx, queryGetAccount, identifier, int16(ch)).Scan(
		&a.ID, &a.Identifier, &channel, &a.ConfirmedAt, &a.CreatedAt,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	a.Channel = entity.Channel(channel)

	return &a, nil
}

// CreateAccount returns goerror.ErrConflict when the pair is already bound.
func (s *DB) CreateAccount(ctx context.Context, a entity.Account) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateAccount, a.ID, a.Identifier, int16(a.Channel), a.ConfirmedAt, a.CreatedAt)
	err = s.mapError(err)
	return err
}
