package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/goerror"
)

// Resolve returns the account bound to the identifier, creating a confirmed
// one when none exists. A concurrent create that loses the race returns the
// winner's account.
func (s *Usecase) Resolve(ctx context.Context, identifier string, ch entity.Channel) (*entity.Account, error) {
	ctx, span := s.startSpan(ctx, "Resolve")
	defer span.End()

	identifier = ch.NormalizeIdentifier(identifier)
	if err := s.validateTarget(identifier, ch); err != nil {
		return nil, err
	}

	acc, err := s.getAccount(ctx, identifier, ch)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get account", "identifier", identifier, "channel", ch.String(), "error", err)
		return nil, storageUnavailable()
	}

	now := s.clock.Now()
	created := entity.Account{
		ID:          s.uid.Generate(),
		Identifier:  identifier,
		Channel:     ch,
		ConfirmedAt: now,
		CreatedAt:   now,
	}

	sctx, cancel := s.withStoreTimeout(ctx)
	err = s.repoAccount.CreateAccount(sctx, created)
	cancel()
	if err == nil {
		slog.InfoContext(ctx, "account created", "account_id", created.ID, "identifier", identifier, "channel", ch.String())
		return &created, nil
	}
	if !errors.Is(err, goerror.ErrConflict) {
		slog.ErrorContext(ctx, "failed to repo create account", "identifier", identifier, "channel", ch.String(), "error", err)
		return nil, storageUnavailable()
	}

	slog.WarnContext(ctx, "account created concurrently, using existing", "identifier", identifier, "channel", ch.String(), "error", entity.ErrAccountConflict)

	acc, err = s.getAccount(ctx, identifier, ch)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account after conflict", "identifier", identifier, "channel", ch.String(), "error", err)
		return nil, storageUnavailable()
	}

	return acc, nil
}

func (s *Usecase) getAccount(ctx context.Context, identifier string, ch entity.Channel) (*entity.Account, error) {
	sctx, cancel := s.withStoreTimeout(ctx)
	defer cancel()
	return s.repoAccount.GetAccount(sctx, identifier, ch)
}
