package app

import (
	"context"
	"net/http"

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
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	generator otp.Generator
	uid       uid.NumberID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources, nil when not configured
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	throttle  throttle.Throttle
	mail      mail.Mail
	sms       sms.SMS
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initThrottle()
	app.initMail()
	app.initSMS()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
