package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/clock"
	"github.com/baginvent/passcode/internal/pkg/goerror"
	"github.com/baginvent/passcode/internal/pkg/hash"
	"github.com/baginvent/passcode/internal/pkg/instrument"
	"github.com/baginvent/passcode/internal/pkg/jwt"
	"github.com/baginvent/passcode/internal/pkg/otp"
	"github.com/baginvent/passcode/internal/pkg/uid"
	"github.com/baginvent/passcode/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultStoreTimeout = 2 * time.Second

	msgInvalidOrExpired   = "Invalid or expired passcode"
	msgDeliveryFailed     = "Passcode could not be delivered, please try again"
	msgStorageUnavailable = "Service temporarily unavailable, please try again"
)

// PasscodeVerifiedEvent is published after a passcode has been consumed.
type PasscodeVerifiedEvent struct {
	AccountID  int64
	Identifier string
	Channel    entity.Channel
	VerifiedAt time.Time
}

// repoStore persists passcodes. Every mutation is a single conditioned
// operation; ClaimPasscode and GetActivePasscode return goerror.ErrNotFound
// when nothing matches.
type repoStore interface {
	ReplacePasscode(ctx context.Context, p entity.Passcode) error
	GetActivePasscode(ctx context.Context, identifier string, ch entity.Channel, now time.Time) (*entity.Passcode, error)
	ClaimPasscode(ctx context.Context, id string, now time.Time) error
	DeleteExpiredPasscodes(ctx context.Context, before time.Time) (int64, error)
}

// repoAccount finds and creates accounts. CreateAccount returns
// goerror.ErrConflict when the (identifier, channel) pair already exists.
type repoAccount interface {
	GetAccount(ctx context.Context, identifier string, ch entity.Channel) (*entity.Account, error)
	CreateAccount(ctx context.Context, a entity.Account) error
}

type repoDelivery interface {
	Send(ctx context.Context, identifier string, ch entity.Channel, code string) error
}

type repoMessaging interface {
	PublishPasscodeVerified(ctx context.Context, msg PasscodeVerifiedEvent) error
}

type Usecase struct {
	repoStore     repoStore
	repoAccount   repoAccount
	repoDelivery  repoDelivery
	repoMessaging repoMessaging
	validator     validator.Validator
	generator     otp.Generator
	hasher        hash.Hash
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	ttl           time.Duration
	storeTimeout  time.Duration

	issued   metric.Int64Counter
	verified metric.Int64Counter
	rejected metric.Int64Counter
	swept    metric.Int64Counter
}

type Dependency struct {
	RepoStore     repoStore
	RepoAccount   repoAccount
	RepoDelivery  repoDelivery
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Generator     otp.Generator
	Hasher        hash.Hash
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	// JWT signs the proof token; nil skips it.
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	// TTL is clamped with entity.ClampTTL.
	TTL          time.Duration
	StoreTimeout time.Duration
}

func New(dep Dependency) *Usecase {
	storeTimeout := dep.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}

	ins := dep.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	uc := &Usecase{
		repoStore:     dep.RepoStore,
		repoAccount:   dep.RepoAccount,
		repoDelivery:  dep.RepoDelivery,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		generator:     dep.Generator,
		hasher:        dep.Hasher,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           ins,
		ttl:           entity.ClampTTL(dep.TTL),
		storeTimeout:  storeTimeout,
	}

	meter := ins.Meter("passcode.usecase")
	uc.issued = newCounter(meter, "passcode.issued", "Passcodes stored and handed to delivery")
	uc.verified = newCounter(meter, "passcode.verified", "Passcodes verified and consumed")
	uc.rejected = newCounter(meter, "passcode.rejected", "Verification attempts rejected, by reason")
	uc.swept = newCounter(meter, "passcode.swept", "Expired passcodes removed by the sweeper")

	return uc
}

// TTL returns the effective passcode lifetime.
func (s *Usecase) TTL() time.Duration {
	return s.ttl
}

func newCounter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		slog.Error("failed to create counter", "name", name, "error", err)
		return nil
	}
	return c
}

func (s *Usecase) count(ctx context.Context, c metric.Int64Counter, n int64, attrs ...attribute.KeyValue) {
	if c == nil || n == 0 {
		return
	}
	c.Add(ctx, n, metric.WithAttributes(attrs...))
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("passcode.usecase").Start(ctx, name)
}

func (s *Usecase) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

// digestInput binds the code to its channel and identifier so a digest
// cannot be replayed against another record.
func digestInput(ch entity.Channel, identifier, code string) string {
	return ch.String() + ":" + identifier + ":" + code
}

func storageUnavailable() error {
	return goerror.NewDomain(entity.ErrStorageUnavailable, msgStorageUnavailable, goerror.CodeUnavailable)
}

func rejected(sentinel error) error {
	return goerror.NewDomain(sentinel, msgInvalidOrExpired, goerror.CodeUnauthorized)
}

// invalidInput keeps both the domain sentinel and the field messages reachable.
func invalidInput(sentinel error, err error) error {
	return goerror.NewInvalidInput(errors.Join(sentinel, err))
}
