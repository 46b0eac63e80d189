package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/passcode/outbound/cache"
	"github.com/baginvent/passcode/internal/pkg/goerror"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	if testing.Short() {
		t.Skip("redis integration test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("redis.ParseURL: %v", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client, "test:", nil)
}

func record(id string, now time.Time) entity.Passcode {
	return entity.Passcode{
		ID:         id,
		Identifier: "+15551234567",
		Channel:    entity.ChannelPhone,
		CodeDigest: "digest-" + id,
		CreatedAt:  now,
		ExpiresAt:  now.Add(10 * time.Minute),
	}
}

func TestCache_ReplaceGetClaim(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	if err := c.ReplacePasscode(ctx, record("first", now)); err != nil {
		t.Fatalf("ReplacePasscode: %v", err)
	}
	if err := c.ReplacePasscode(ctx, record("second", now)); err != nil {
		t.Fatalf("ReplacePasscode: %v", err)
	}

	got, err := c.GetActivePasscode(ctx, "+15551234567", entity.ChannelPhone, now)
	if err != nil {
		t.Fatalf("GetActivePasscode: %v", err)
	}
	if got.ID != "second" || got.CodeDigest != "digest-second" || !got.ExpiresAt.Equal(now.Add(10*time.Minute)) {
		t.Fatalf("unexpected record %+v", got)
	}

	if err := c.ClaimPasscode(ctx, "first", now); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("claim superseded: want ErrNotFound, got %v", err)
	}
	if err := c.ClaimPasscode(ctx, "second", now); err != nil {
		t.Fatalf("ClaimPasscode: %v", err)
	}
	if err := c.ClaimPasscode(ctx, "second", now); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("second claim: want ErrNotFound, got %v", err)
	}
	if _, err := c.GetActivePasscode(ctx, "+15551234567", entity.ChannelPhone, now); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("after claim: want ErrNotFound, got %v", err)
	}
}

func TestCache_ExpiredIsInvisible(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	if err := c.ReplacePasscode(ctx, record("p", now)); err != nil {
		t.Fatalf("ReplacePasscode: %v", err)
	}

	later := now.Add(11 * time.Minute)
	if _, err := c.GetActivePasscode(ctx, "+15551234567", entity.ChannelPhone, later); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := c.ClaimPasscode(ctx, "p", later); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("claim expired: want ErrNotFound, got %v", err)
	}
}

func TestCache_ConcurrentClaim(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	if err := c.ReplacePasscode(ctx, record("race", now)); err != nil {
		t.Fatalf("ReplacePasscode: %v", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range 8 {
		wg.Go(func() {
			if err := c.ClaimPasscode(ctx, "race", now); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		})
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("claims won = %d, want 1", wins)
	}
}
