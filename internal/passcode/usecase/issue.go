package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/goerror"
	"go.opentelemetry.io/otel/attribute"
)

type IssueInput struct {
	Identifier string
	Channel    entity.Channel
}

type IssueOutput struct {
	Accepted  bool
	ExpiresAt time.Time
}

// Issue stores a fresh passcode for the identifier, superseding any earlier
// one, and makes exactly one delivery attempt. A failed delivery keeps the
// stored passcode and reports ErrDeliveryFailed.
func (s *Usecase) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	ctx, span := s.startSpan(ctx, "Issue")
	defer span.End()

	in.Identifier = in.Channel.NormalizeIdentifier(in.Identifier)

	if err := s.validateTarget(in.Identifier, in.Channel); err != nil {
		return nil, err
	}

	code, err := s.generator.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "error", err)
		return nil, goerror.NewServer(err)
	}

	digest, err := s.hasher.Hash(digestInput(in.Channel, in.Identifier, code))
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash passcode", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	rec := entity.Passcode{
		ID:         s.uuid.Generate(),
		Identifier: in.Identifier,
		Channel:    in.Channel,
		CodeDigest: string(digest),
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	sctx, cancel := s.withStoreTimeout(ctx)
	err = s.repoStore.ReplacePasscode(sctx, rec)
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo replace passcode", "identifier", in.Identifier, "channel", in.Channel.String(), "error", err)
		return nil, storageUnavailable()
	}

	s.count(ctx, s.issued, 1, attribute.String("channel", in.Channel.String()))

	if err := s.repoDelivery.Send(ctx, in.Identifier, in.Channel, code); err != nil {
		slog.ErrorContext(ctx, "failed to deliver passcode", "identifier", in.Identifier, "channel", in.Channel.String(), "passcode_id", rec.ID, "error", err)
		return nil, goerror.NewDomain(entity.ErrDeliveryFailed, msgDeliveryFailed, goerror.CodeBadGateway)
	}

	slog.InfoContext(ctx, "passcode issued", "identifier", in.Identifier, "channel", in.Channel.String(), "passcode_id", rec.ID, "expires_at", rec.ExpiresAt)

	return &IssueOutput{Accepted: true, ExpiresAt: rec.ExpiresAt}, nil
}
