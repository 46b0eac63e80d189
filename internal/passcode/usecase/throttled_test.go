package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/passcode/usecase"
	"github.com/baginvent/passcode/internal/pkg/throttle"
)

type brokenLimiter struct{}

func (brokenLimiter) Cooldown(context.Context, string, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("redis: connection refused")
}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (bool, time.Duration, error) {
	return false, 0, errors.New("redis: connection refused")
}

func (brokenLimiter) Reset(context.Context, string) error { return nil }

func TestThrottledResendCooldown(t *testing.T) {
	f := newFixture(t)
	th := usecase.NewThrottled(f.uc, throttle.NewLocal(f.clock), usecase.ThrottlePolicy{
		ResendCooldown: time.Minute,
	})
	ctx := context.Background()
	in := usecase.IssueInput{Identifier: "user@example.com", Channel: entity.ChannelEmail}

	if _, err := th.Issue(ctx, in); err != nil {
		t.Fatalf("first Issue() error = %v", err)
	}

	_, err := th.Issue(ctx, usecase.IssueInput{Identifier: "USER@example.com", Channel: entity.ChannelEmail})
	if !errors.Is(err, entity.ErrThrottled) {
		t.Fatalf("second Issue() error = %v, want ErrThrottled", err)
	}
	assertStatus(t, err, 429)

	var terr *usecase.ThrottledError
	if !errors.As(err, &terr) || terr.RetryAfter() <= 0 || terr.RetryAfter() > time.Minute {
		t.Fatalf("RetryAfter missing or out of range: %v", err)
	}

	if _, err := th.Issue(ctx, usecase.IssueInput{Identifier: "other@example.com", Channel: entity.ChannelEmail}); err != nil {
		t.Fatalf("other identifier throttled: %v", err)
	}

	f.clock.Advance(time.Minute + time.Second)
	if _, err := th.Issue(ctx, in); err != nil {
		t.Fatalf("Issue() after cooldown error = %v", err)
	}
}

func TestThrottledFailedIssueKeepsCooldownFree(t *testing.T) {
	f := newFixture(t)
	th := usecase.NewThrottled(f.uc, throttle.NewLocal(f.clock), usecase.ThrottlePolicy{
		ResendCooldown: time.Minute,
	})
	ctx := context.Background()
	in := usecase.IssueInput{Identifier: "user@example.com", Channel: entity.ChannelEmail}

	if _, err := th.Issue(ctx, usecase.IssueInput{Identifier: "not-an-email", Channel: entity.ChannelEmail}); !errors.Is(err, entity.ErrInvalidIdentifier) {
		t.Fatalf("Issue(invalid) error = %v, want ErrInvalidIdentifier", err)
	}

	f.delivery.err = errors.New("smtp: connection refused")
	if _, err := th.Issue(ctx, in); !errors.Is(err, entity.ErrDeliveryFailed) {
		t.Fatalf("first Issue() error = %v, want ErrDeliveryFailed", err)
	}

	f.delivery.err = nil
	if _, err := th.Issue(ctx, in); err != nil {
		t.Fatalf("retry after failed delivery error = %v", err)
	}

	if _, err := th.Issue(ctx, in); !errors.Is(err, entity.ErrThrottled) {
		t.Fatalf("Issue() after delivered code error = %v, want ErrThrottled", err)
	}
}

func TestThrottledVerifyCap(t *testing.T) {
	f := newFixture(t)
	th := usecase.NewThrottled(f.uc, throttle.NewLocal(f.clock), usecase.ThrottlePolicy{
		VerifyWindow: 10 * time.Minute,
		VerifyMax:    3,
	})
	ctx := context.Background()

	code := f.issue(t, "+15551234567", entity.ChannelPhone)
	bad := usecase.VerifyInput{Identifier: "+15551234567", Channel: entity.ChannelPhone, Code: wrongCode(code)}

	for i := range 3 {
		if _, err := th.Verify(ctx, bad); !errors.Is(err, entity.ErrInvalidCode) {
			t.Fatalf("attempt %d error = %v, want ErrInvalidCode", i, err)
		}
	}

	good := usecase.VerifyInput{Identifier: "+15551234567", Channel: entity.ChannelPhone, Code: code}
	if _, err := th.Verify(ctx, good); !errors.Is(err, entity.ErrThrottled) {
		t.Fatalf("capped attempt error = %v, want ErrThrottled", err)
	}

	f.clock.Advance(4 * time.Minute)
	if _, err := th.Verify(ctx, good); err != nil {
		t.Fatalf("Verify() after refill error = %v", err)
	}
}

func TestThrottledIssueWindow(t *testing.T) {
	f := newFixture(t)
	th := usecase.NewThrottled(f.uc, throttle.NewLocal(f.clock), usecase.ThrottlePolicy{
		IssueWindow: time.Hour,
		IssueMax:    2,
	})
	ctx := context.Background()
	in := usecase.IssueInput{Identifier: "+15551234567", Channel: entity.ChannelPhone}

	for i := range 2 {
		if _, err := th.Issue(ctx, in); err != nil {
			t.Fatalf("Issue() %d error = %v", i, err)
		}
	}
	if _, err := th.Issue(ctx, in); !errors.Is(err, entity.ErrThrottled) {
		t.Fatalf("third Issue() error = %v, want ErrThrottled", err)
	}
}

func TestThrottledFailsOpen(t *testing.T) {
	f := newFixture(t)
	th := usecase.NewThrottled(f.uc, brokenLimiter{}, usecase.ThrottlePolicy{
		ResendCooldown: time.Minute,
		IssueWindow:    time.Hour,
		IssueMax:       1,
		VerifyWindow:   time.Hour,
		VerifyMax:      1,
	})
	ctx := context.Background()

	if _, err := th.Issue(ctx, usecase.IssueInput{Identifier: "user@example.com", Channel: entity.ChannelEmail}); err != nil {
		t.Fatalf("Issue() with broken limiter error = %v", err)
	}

	code := f.delivery.code("user@example.com", entity.ChannelEmail)
	if _, err := th.Verify(ctx, usecase.VerifyInput{Identifier: "user@example.com", Channel: entity.ChannelEmail, Code: code}); err != nil {
		t.Fatalf("Verify() with broken limiter error = %v", err)
	}
}

func TestThrottledPassesValidationThrough(t *testing.T) {
	f := newFixture(t)
	th := usecase.NewThrottled(f.uc, brokenLimiter{}, usecase.ThrottlePolicy{ResendCooldown: time.Minute})

	_, err := th.Issue(context.Background(), usecase.IssueInput{Identifier: "x", Channel: entity.ChannelUnknown})
	if !errors.Is(err, entity.ErrInvalidIdentifier) {
		t.Fatalf("Issue() error = %v, want ErrInvalidIdentifier", err)
	}
}
