package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/goerror"
	"github.com/baginvent/passcode/internal/pkg/jwt"
	"go.opentelemetry.io/otel/attribute"
)

type VerifyInput struct {
	Identifier string
	Channel    entity.Channel
	Code       string
}

type VerifyOutput struct {
	Verified   bool
	Account    entity.Account
	ProofToken string
}

// Verify consumes the active passcode for the identifier when code matches.
//
// Unknown, consumed and expired passcodes all surface as
// ErrNotFoundOrExpired; a wrong code leaves the passcode live. Both share
// one public message.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	in.Identifier = in.Channel.NormalizeIdentifier(in.Identifier)

	if err := s.validateTarget(in.Identifier, in.Channel); err != nil {
		return nil, err
	}
	if err := s.validateCode(in.Code); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	sctx, cancel := s.withStoreTimeout(ctx)
	rec, err := s.repoStore.GetActivePasscode(sctx, in.Identifier, in.Channel, now)
	cancel()
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, s.reject(ctx, in, entity.ErrNotFoundOrExpired, "not_found_or_expired")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get active passcode", "identifier", in.Identifier, "channel", in.Channel.String(), "error", err)
		return nil, storageUnavailable()
	}

	if !rec.IsActive(now) {
		return nil, s.reject(ctx, in, entity.ErrNotFoundOrExpired, "not_found_or_expired")
	}

	if !s.hasher.Verify(rec.CodeDigest, digestInput(in.Channel, in.Identifier, in.Code)) {
		return nil, s.reject(ctx, in, entity.ErrInvalidCode, "invalid_code")
	}

	sctx, cancel = s.withStoreTimeout(ctx)
	err = s.repoStore.ClaimPasscode(sctx, rec.ID, now)
	cancel()
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, s.reject(ctx, in, entity.ErrNotFoundOrExpired, "already_claimed")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo claim passcode", "passcode_id", rec.ID, "error", err)
		return nil, storageUnavailable()
	}

	s.count(ctx, s.verified, 1, attribute.String("channel", in.Channel.String()))

	acc, err := s.Resolve(ctx, in.Identifier, in.Channel)
	if err != nil {
		return nil, err
	}

	out := &VerifyOutput{Verified: true, Account: *acc}

	if s.jwt != nil {
		token, err := s.jwt.Generate(jwt.Proof{
			AccountID:  acc.ID,
			Identifier: acc.Identifier,
			Channel:    acc.Channel.String(),
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to generate proof token", "account_id", acc.ID, "error", err)
			return nil, goerror.NewServer(err)
		}
		out.ProofToken = token
	}

	if s.repoMessaging != nil {
		if err := s.repoMessaging.PublishPasscodeVerified(ctx, PasscodeVerifiedEvent{
			AccountID:  acc.ID,
			Identifier: acc.Identifier,
			Channel:    acc.Channel,
			VerifiedAt: now,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish passcode verified", "account_id", acc.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "passcode verified", "identifier", in.Identifier, "channel", in.Channel.String(), "account_id", acc.ID)

	return out, nil
}

func (s *Usecase) reject(ctx context.Context, in VerifyInput, sentinel error, reason string) error {
	slog.WarnContext(ctx, "passcode rejected", "identifier", in.Identifier, "channel", in.Channel.String(), "reason", reason)
	s.count(ctx, s.rejected, 1, attribute.String("reason", reason))
	return rejected(sentinel)
}
