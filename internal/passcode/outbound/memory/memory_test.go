package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/goerror"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func record(id string) entity.Passcode {
	return entity.Passcode{
		ID:         id,
		Identifier: "user@example.com",
		Channel:    entity.ChannelEmail,
		CodeDigest: "digest-" + id,
		CreatedAt:  t0,
		ExpiresAt:  t0.Add(10 * time.Minute),
	}
}

func TestReplaceKeepsOnePerPair(t *testing.T) {
	ctx := context.Background()
	s := New()

	_ = s.ReplacePasscode(ctx, record("a"))
	_ = s.ReplacePasscode(ctx, record("b"))

	got, err := s.GetActivePasscode(ctx, "user@example.com", entity.ChannelEmail, t0)
	if err != nil {
		t.Fatalf("GetActivePasscode() error = %v", err)
	}
	if got.ID != "b" {
		t.Fatalf("active id = %q, want b", got.ID)
	}
	if err := s.ClaimPasscode(ctx, "a", t0); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("ClaimPasscode(superseded) error = %v, want ErrNotFound", err)
	}

	if _, err := s.GetActivePasscode(ctx, "user@example.com", entity.ChannelPhone, t0); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("other channel error = %v, want ErrNotFound", err)
	}
}

func TestClaimIsSingleUse(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.ReplacePasscode(ctx, record("a"))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			if s.ClaimPasscode(ctx, "a", t0) == nil {
				wins.Add(1)
			}
		})
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("claims won = %d, want 1", wins.Load())
	}
	if _, err := s.GetActivePasscode(ctx, "user@example.com", entity.ChannelEmail, t0); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("claimed passcode still readable: %v", err)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.ReplacePasscode(ctx, record("a"))

	late := t0.Add(10 * time.Minute)
	if _, err := s.GetActivePasscode(ctx, "user@example.com", entity.ChannelEmail, late); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expired lookup error = %v, want ErrNotFound", err)
	}
	if err := s.ClaimPasscode(ctx, "a", late); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expired claim error = %v, want ErrNotFound", err)
	}

	n, err := s.DeleteExpiredPasscodes(ctx, late)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpiredPasscodes() = %d, %v; want 1, nil", n, err)
	}
}

func TestCreateAccountConflict(t *testing.T) {
	ctx := context.Background()
	s := New()
	acc := entity.Account{ID: 1, Identifier: "+15551234567", Channel: entity.ChannelPhone}

	if err := s.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	acc.ID = 2
	if err := s.CreateAccount(ctx, acc); !errors.Is(err, goerror.ErrConflict) {
		t.Fatalf("CreateAccount(dup) error = %v, want ErrConflict", err)
	}

	got, err := s.GetAccount(ctx, "+15551234567", entity.ChannelPhone)
	if err != nil || got.ID != 1 {
		t.Fatalf("GetAccount() = %+v, %v", got, err)
	}
}
