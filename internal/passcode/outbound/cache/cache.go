// Package cache stores passcodes in Redis. Each (channel, identifier) pair
// owns one hash that expires on its own at the passcode's expiry.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/goerror"
	"github.com/baginvent/passcode/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultPrefix = "passcode:"

const (
	fieldID        = "id"
	fieldDigest    = "digest"
	fieldCreatedAt = "created_at"
	fieldExpiresAt = "expires_at"
)

// claimScript deletes the record pointed to by the id index when it still
// belongs to that id and has not expired. Returns 1 when claimed.
var claimScript = redis.NewScript(`
local rec = redis.call('GET', KEYS[1])
if not rec then
  return 0
end
local vals = redis.call('HMGET', rec, 'id', 'expires_at')
if vals[1] ~= ARGV[1] then
  return 0
end
if tonumber(vals[2]) <= tonumber(ARGV[2]) then
  return 0
end
redis.call('DEL', rec, KEYS[1])
return 1
`)

type Cache struct {
	client redis.UniversalClient
	prefix string
	ins    instrument.Instrumentation
}

func NewCache(client redis.UniversalClient, prefix string, ins instrument.Instrumentation) *Cache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ins == nil {
		ins = instrument.NewNoop()
	}
	return &Cache{client: client, prefix: prefix, ins: ins}
}

func (c *Cache) recordKey(identifier string, ch entity.Channel) string {
	return c.prefix + "record:" + ch.String() + ":" + identifier
}

func (c *Cache) idKey(id string) string {
	return c.prefix + "id:" + id
}

func (c *Cache) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return goerror.ErrNotFound
	}
	return err
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("passcode.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) Ping(ctx context.Context) (err error) {
	ctx, span := c.startSpan(ctx, "Ping")
	defer func() { c.endSpan(span, err) }()

	err = c.client.Ping(ctx).Err()
	return err
}

// ReplacePasscode overwrites the pair's hash and points the id index at it
// in one MULTI/EXEC. A stale id index left by an earlier record no longer
// matches the hash and expires with it.
func (c *Cache) ReplacePasscode(ctx context.Context, p entity.Passcode) (err error) {
	ctx, span := c.startSpan(ctx, "ReplacePasscode")
	defer func() { c.endSpan(span, err) }()

	rk := c.recordKey(p.Identifier, p.Channel)

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rk)
		pipe.HSet(ctx, rk,
			fieldID, p.ID,
			fieldDigest, p.CodeDigest,
			fieldCreatedAt, p.CreatedAt.UnixMilli(),
			fieldExpiresAt, p.ExpiresAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, rk, p.ExpiresAt)
		pipe.SetArgs(ctx, c.idKey(p.ID), rk, redis.SetArgs{ExpireAt: p.ExpiresAt})
		return nil
	})
	err = c.mapError(err)
	return err
}

func (c *Cache) GetActivePasscode(ctx context.Context, identifier string, ch entity.Channel, now time.Time) (_ *entity.Passcode, err error) {
	ctx, span := c.startSpan(ctx, "GetActivePasscode")
	defer func() { c.endSpan(span, err) }()

	vals, err := c.client.HGetAll(ctx, c.recordKey(identifier, ch)).Result()
	if err != nil {
		err = c.mapError(err)
		return nil, err
	}
	if len(vals) == 0 {
		err = goerror.ErrNotFound
		return nil, err
	}

	p, err := decodeRecord(identifier, ch, vals)
	if err != nil {
		return nil, err
	}
	if !p.IsActive(now) {
		err = goerror.ErrNotFound
		return nil, err
	}

	return p, nil
}

func (c *Cache) ClaimPasscode(ctx context.Context, id string, now time.Time) (err error) {
	ctx, span := c.startSpan(ctx, "ClaimPasscode")
	defer func() { c.endSpan(span, err) }()

	n, err := claimScript.Run(ctx, c.client, []string{c.idKey(id)}, id, now.UnixMilli()).Int()
	if err != nil {
		err = c.mapError(err)
		return err
	}
	if n != 1 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}

// DeleteExpiredPasscodes is a no-op: Redis evicts records at their expiry.
func (c *Cache) DeleteExpiredPasscodes(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func decodeRecord(identifier string, ch entity.Channel, vals map[string]string) (*entity.Passcode, error) {
	created, err := strconv.ParseInt(vals[fieldCreatedAt], 10, 64)
	if err != nil {
		return nil, errors.New("cache: corrupt created_at")
	}
	expires, err := strconv.ParseInt(vals[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, errors.New("cache: corrupt expires_at")
	}

	return &entity.Passcode{
		ID:         vals[fieldID],
		Identifier: identifier,
		Channel:    ch,
		CodeDigest: vals[fieldDigest],
		CreatedAt:  time.UnixMilli(created).UTC(),
		ExpiresAt:  time.UnixMilli(expires).UTC(),
	}, nil
}
