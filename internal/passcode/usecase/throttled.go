package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/goerror"
	"github.com/baginvent/passcode/internal/pkg/throttle"
)

const msgThrottled = "Too many requests, please try again later"

// ThrottlePolicy bounds issuance and verification per (identifier, channel).
// Zero values disable the matching rule.
type ThrottlePolicy struct {
	ResendCooldown time.Duration
	IssueWindow    time.Duration
	IssueMax       int
	VerifyWindow   time.Duration
	VerifyMax      int
}

// ThrottledError is returned when a policy rule refuses a call.
type ThrottledError struct {
	err   error
	after time.Duration
}

func (e *ThrottledError) Error() string             { return e.err.Error() }
func (e *ThrottledError) Unwrap() error             { return e.err }
func (e *ThrottledError) RetryAfter() time.Duration { return e.after }

func newThrottledError(after time.Duration) error {
	return &ThrottledError{
		err:   goerror.NewDomain(entity.ErrThrottled, msgThrottled, goerror.CodeTooManyRequest),
		after: after,
	}
}

// Throttled wraps Usecase with a rate policy. Limiter failures are logged
// and the call proceeds.
type Throttled struct {
	*Usecase
	limiter throttle.Throttle
	policy  ThrottlePolicy
}

func NewThrottled(uc *Usecase, limiter throttle.Throttle, policy ThrottlePolicy) *Throttled {
	return &Throttled{Usecase: uc, limiter: limiter, policy: policy}
}

func throttleKey(action string, ch entity.Channel, identifier string) string {
	return "passcode:" + action + ":" + ch.String() + ":" + ch.NormalizeIdentifier(identifier)
}

func (t *Throttled) Issue(ctx context.Context, in IssueInput) (*IssueOutput, error) {
	if !in.Channel.IsValid() {
		return t.Usecase.Issue(ctx, in)
	}

	var cooldownKey string
	if t.policy.ResendCooldown > 0 {
		cooldownKey = throttleKey("cooldown", in.Channel, in.Identifier)
		ok, after, err := t.limiter.Cooldown(ctx, cooldownKey, t.policy.ResendCooldown)
		if err := t.check(ctx, cooldownKey, ok, after, err); err != nil {
			return nil, err
		}
	}

	if t.policy.IssueMax > 0 && t.policy.IssueWindow > 0 {
		key := throttleKey("issue", in.Channel, in.Identifier)
		ok, after, err := t.limiter.Allow(ctx, key, t.policy.IssueMax, t.policy.IssueWindow)
		if err := t.check(ctx, key, ok, after, err); err != nil {
			return nil, err
		}
	}

	out, err := t.Usecase.Issue(ctx, in)
	if err != nil && cooldownKey != "" {
		// A failed issuance delivered nothing, so the caller may retry at once.
		if rerr := t.limiter.Reset(ctx, cooldownKey); rerr != nil {
			slog.WarnContext(ctx, "failed to reset resend cooldown", "key", cooldownKey, "error", rerr)
		}
	}
	return out, err
}

func (t *Throttled) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	if !in.Channel.IsValid() || t.policy.VerifyMax <= 0 || t.policy.VerifyWindow <= 0 {
		return t.Usecase.Verify(ctx, in)
	}

	key := throttleKey("verify", in.Channel, in.Identifier)
	ok, after, err := t.limiter.Allow(ctx, key, t.policy.VerifyMax, t.policy.VerifyWindow)
	if err := t.check(ctx, key, ok, after, err); err != nil {
		return nil, err
	}

	out, err := t.Usecase.Verify(ctx, in)
	if err != nil {
		return nil, err
	}

	if rerr := t.limiter.Reset(ctx, key); rerr != nil {
		slog.WarnContext(ctx, "failed to reset verify throttle", "key", key, "error", rerr)
	}

	return out, nil
}

func (t *Throttled) check(ctx context.Context, key string, ok bool, after time.Duration, err error) error {
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.WarnContext(ctx, "failed to check throttle, allowing", "key", key, "error", err)
		}
		return nil
	}
	if !ok {
		slog.WarnContext(ctx, "passcode request throttled", "key", key, "retry_after", after)
		return newThrottledError(after)
	}
	return nil
}
