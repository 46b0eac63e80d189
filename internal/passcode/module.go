package passcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/passcode/inbound"
	"github.com/baginvent/passcode/internal/passcode/outbound/cache"
	"github.com/baginvent/passcode/internal/passcode/outbound/db"
	"github.com/baginvent/passcode/internal/passcode/outbound/delivery"
	"github.com/baginvent/passcode/internal/passcode/outbound/memory"
	"github.com/baginvent/passcode/internal/passcode/outbound/mq"
	"github.com/baginvent/passcode/internal/passcode/usecase"
	"github.com/baginvent/passcode/internal/pkg/clock"
	"github.com/baginvent/passcode/internal/pkg/config"
	"github.com/baginvent/passcode/internal/pkg/goroutine"
	"github.com/baginvent/passcode/internal/pkg/hash"
	"github.com/baginvent/passcode/internal/pkg/instrument"
	"github.com/baginvent/passcode/internal/pkg/jwt"
	"github.com/baginvent/passcode/internal/pkg/mail"
	"github.com/baginvent/passcode/internal/pkg/messaging"
	"github.com/baginvent/passcode/internal/pkg/otp"
	"github.com/baginvent/passcode/internal/pkg/router"
	"github.com/baginvent/passcode/internal/pkg/sms"
	"github.com/baginvent/passcode/internal/pkg/throttle"
	"github.com/baginvent/passcode/internal/pkg/uid"
	"github.com/baginvent/passcode/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
	StoreDriverMemory   = "memory"
)

const (
	DeliveryDriverLog = "log"

	envProduction = "production"
)

var (
	ErrUnknownStoreDriver = errors.New("passcode: unknown store driver")
	ErrMissingConnection  = errors.New("passcode: store driver needs a connection that is not configured")
	ErrLogDeliveryInProd  = errors.New("passcode: log delivery driver is not allowed in production")
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Throttle   throttle.Throttle          `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Generator  otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`

	// DBConn and CacheConn are required by the matching store driver only.
	DBConn    *pgxpool.Pool
	CacheConn redis.UniversalClient
	// Mail and SMS enable their delivery channel when set.
	Mail mail.Mail
	SMS  sms.SMS
	// JWT signs proof tokens when set.
	JWT jwt.JWT
}

type passcodeStore interface {
	ReplacePasscode(ctx context.Context, p entity.Passcode) error
	GetActivePasscode(ctx context.Context, identifier string, ch entity.Channel, now time.Time) (*entity.Passcode, error)
	ClaimPasscode(ctx context.Context, id string, now time.Time) error
	DeleteExpiredPasscodes(ctx context.Context, before time.Time) (int64, error)
	Ping(ctx context.Context) error
}

type accountStore interface {
	GetAccount(ctx context.Context, identifier string, ch entity.Channel) (*entity.Account, error)
	CreateAccount(ctx context.Context, a entity.Account) error
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	store, accounts, err := newStores(dep)
	if err != nil {
		return err
	}

	ttl := dep.Config.GetMinute("passcode.ttl_minutes")

	sender, err := newDelivery(dep, entity.ClampTTL(ttl))
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoStore:     store,
		RepoAccount:   accounts,
		RepoDelivery:  sender,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		Generator:     dep.Generator,
		Hasher:        dep.HMAC,
		UID:           dep.UID,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		TTL:           ttl,
		StoreTimeout:  dep.Config.GetMillisecond("passcode.store.timeout_millis"),
	})

	throttled := usecase.NewThrottled(uc, dep.Throttle, usecase.ThrottlePolicy{
		ResendCooldown: dep.Config.GetSecond("passcode.throttle.resend_cooldown_seconds"),
		IssueWindow:    dep.Config.GetSecond("passcode.throttle.issue_window_seconds"),
		IssueMax:       dep.Config.GetInt("passcode.throttle.issue_max"),
		VerifyWindow:   dep.Config.GetSecond("passcode.throttle.verify_window_seconds"),
		VerifyMax:      dep.Config.GetInt("passcode.throttle.verify_max"),
	})

	job := inbound.NewSweepJob(uc, dep.Config.GetSecond("passcode.sweep.interval_seconds"))

	inbound.RegisterHTTPEndpoint(dep.Router, throttled, store)
	inbound.RegisterSweepJob(dep.Ctx, dep.Config, dep.Goroutine, job)
	inbound.RegisterMQConsumer(dep.Ctx, dep.Config, dep.Goroutine, dep.Messaging, dep.UUID, job, dep.Instrument)

	return nil
}

func newStores(dep Dependency) (passcodeStore, accountStore, error) {
	driver := lo.CoalesceOrEmpty(strings.TrimSpace(dep.Config.GetString("passcode.store.driver")), StoreDriverMemory)

	switch driver {
	case StoreDriverPostgres:
		if dep.DBConn == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingConnection, driver)
		}
		pg := db.NewDB(dep.DBConn, dep.Instrument)
		if err := ensureSchema(dep.Ctx, pg); err != nil {
			return nil, nil, err
		}
		return pg, pg, nil

	case StoreDriverRedis:
		if dep.CacheConn == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingConnection, driver)
		}
		rc := cache.NewCache(dep.CacheConn, dep.Config.GetString("passcode.store.redis_prefix"), dep.Instrument)
		if dep.DBConn == nil {
			slog.Warn("passcode accounts kept in memory, configure database.url to persist them")
			return rc, memory.New(), nil
		}
		pg := db.NewDB(dep.DBConn, dep.Instrument)
		if err := ensureSchema(dep.Ctx, pg); err != nil {
			return nil, nil, err
		}
		return rc, pg, nil

	case StoreDriverMemory:
		mem := memory.New()
		return mem, mem, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStoreDriver, driver)
	}
}

// newDelivery swaps a channel's sender for the console when its driver is
// "log". The console is refused in production.
func newDelivery(dep Dependency, ttl time.Duration) (*delivery.Delivery, error) {
	emailLog := dep.Config.GetString("passcode.delivery.email.driver") == DeliveryDriverLog
	smsLog := dep.Config.GetString("passcode.delivery.sms.driver") == DeliveryDriverLog

	if (emailLog || smsLog) && dep.Config.GetString("app.env") == envProduction {
		return nil, ErrLogDeliveryInProd
	}

	cfg := delivery.Config{Mail: dep.Mail, SMS: dep.SMS, TTL: ttl, Instrument: dep.Instrument}
	console := delivery.NewConsole(nil)
	if emailLog {
		cfg.Mail = console
	}
	if smsLog {
		cfg.SMS = console.SMS()
	}
	if cfg.Mail == nil {
		slog.Warn("passcode email channel has no sender configured")
	}
	if cfg.SMS == nil {
		slog.Warn("passcode sms channel has no sender configured")
	}

	return delivery.New(cfg), nil
}

func ensureSchema(ctx context.Context, pg *db.DB) error {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithMaxRetries(5, b)
	b = retry.WithCappedDuration(5*time.Second, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := pg.EnsureSchema(ctx); err != nil {
			slog.WarnContext(ctx, "failed to apply passcode schema, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}
