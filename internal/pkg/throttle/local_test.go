package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/baginvent/passcode/internal/pkg/clock"
)

func TestLocalCooldown(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	l := NewLocal(clk)

	ok, _, _ := l.Cooldown(ctx, "email:user@example.com", time.Minute)
	if !ok {
		t.Fatalf("first call should pass")
	}

	ok, wait, _ := l.Cooldown(ctx, "email:user@example.com", time.Minute)
	if ok {
		t.Fatalf("second call inside cooldown should be refused")
	}
	if wait <= 0 || wait > time.Minute {
		t.Fatalf("retryAfter = %v, want (0, 1m]", wait)
	}

	if ok, _, _ := l.Cooldown(ctx, "email:other@example.com", time.Minute); !ok {
		t.Fatalf("other key should not share the cooldown")
	}

	clk.Advance(time.Minute)
	if ok, _, _ := l.Cooldown(ctx, "email:user@example.com", time.Minute); !ok {
		t.Fatalf("call after cooldown should pass")
	}
}

func TestLocalAllowWindow(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	l := NewLocal(clk)

	for i := range 5 {
		if ok, _, _ := l.Allow(ctx, "k", 5, 10*time.Minute); !ok {
			t.Fatalf("hit %d refused, want allowed", i+1)
		}
	}

	ok, wait, _ := l.Allow(ctx, "k", 5, 10*time.Minute)
	if ok {
		t.Fatalf("sixth hit allowed, want refused")
	}
	if wait <= 0 {
		t.Fatalf("retryAfter = %v, want > 0", wait)
	}

	if err := l.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if ok, _, _ := l.Allow(ctx, "k", 5, 10*time.Minute); !ok {
		t.Fatalf("hit after reset refused")
	}
}

func TestLocalRefusalDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	l := NewLocal(clk)

	l.Cooldown(ctx, "k", time.Minute)
	for range 10 {
		l.Cooldown(ctx, "k", time.Minute)
	}

	clk.Advance(time.Minute)
	if ok, _, _ := l.Cooldown(ctx, "k", time.Minute); !ok {
		t.Fatalf("refused attempts extended the cooldown")
	}
}
