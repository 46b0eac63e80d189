package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

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
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
)

const digestKeyInfo = "passcode-digest-v1"

func (a *App) initConfig() {
	local := os.Getenv("LOCAL") == "true"
	if local {
		if err := config.LoadEnvFile(".env"); err != nil {
			slog.Error("failed to load .env file", "error", err)
			os.Exit(1)
		}
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if local {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.generator = otp.NewNumeric(otp.DefaultDigits)

	key, err := hash.DeriveKey([]byte(a.config.GetString("passcode.hash.secret")), digestKeyInfo)
	if err != nil {
		slog.Error("failed to derive passcode digest key", "error", err)
		os.Exit(1)
	}
	a.hmac = hash.NewHMACSHA256(key)

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	secret := a.config.GetString("jwt.secret")
	if secret == "" {
		slog.Info("jwt secret not set, proof tokens disabled")
		return
	}

	proof, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(secret),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = proof
}

// startupBackoff retries connection checks while dependencies come up.
func startupBackoff() retry.Backoff {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(5*time.Second, b)
	return retry.WithMaxDuration(30*time.Second, b)
}

func (a *App) initDatabase() {
	url := strings.TrimSpace(a.config.GetString("database.url"))
	if url == "" {
		return
	}

	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	if err := retry.Do(a.ctx, startupBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.WarnContext(ctx, "DB not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		return
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	if err := retry.Do(a.ctx, startupBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.WarnContext(ctx, "redis not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initThrottle() {
	switch driver := a.config.GetString("passcode.throttle.driver"); driver {
	case "redis":
		if a.cacheConn == nil {
			slog.Error("failed to init throttle, redis driver needs redis.url")
			os.Exit(1)
		}
		a.throttle = throttle.NewRedis(a.cacheConn, a.config.GetString("passcode.throttle.prefix"))
	case "local", "":
		a.throttle = throttle.NewLocal(a.clock)
	default:
		slog.Error("failed to init throttle, unknown driver", "driver", driver)
		os.Exit(1)
	}
}

func (a *App) initMail() {
	if a.config.GetString("passcode.delivery.email.driver") != "smtp" {
		return
	}

	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:               a.config.GetString("mail.host"),
		Port:               a.config.GetInt("mail.port"),
		Username:           a.config.GetString("mail.username"),
		Password:           a.config.GetString("mail.password"),
		From:               a.config.GetString("mail.from"),
		InsecureSkipVerify: a.config.GetBool("mail.insecure_skip_verify"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initSMS() {
	if a.config.GetString("passcode.delivery.sms.driver") != "twilio" {
		return
	}

	twilio, err := sms.NewTwilio(sms.TwilioConfig{
		AccountSID: a.config.GetString("sms.twilio.account_sid"),
		AuthToken:  a.config.GetString("sms.twilio.auth_token"),
		From:       a.config.GetString("sms.twilio.from"),
		BaseURL:    a.config.GetString("sms.twilio.base_url"),
		Timeout:    a.config.GetSecond("sms.twilio.timeout_seconds"),
	})
	if err != nil {
		slog.Error("failed to init sms", "error", err)
		os.Exit(1)
	}

	a.sms = twilio
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
		Throttle:   a.throttle,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Retry-After", "X-Correlation-ID"},
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

// initClosers lists resources in the order they were opened; Stop walks
// the list backwards.
func (a *App) initClosers() {
	a.closers = []closer{
		{name: "Config", fn: func(context.Context) error { return a.config.Close() }},
		{name: "Instrument", fn: a.ins.Shutdown},
		{name: "Database", fn: func(context.Context) error {
			if a.dbConn != nil {
				a.dbConn.Close()
			}
			return nil
		}},
		{name: "Redis", fn: func(context.Context) error {
			if a.cacheConn == nil {
				return nil
			}
			return a.cacheConn.Close()
		}},
		{name: "Mail", fn: func(context.Context) error {
			if a.mail == nil {
				return nil
			}
			return a.mail.Close()
		}},
		{name: "SMS", fn: func(context.Context) error {
			if a.sms == nil {
				return nil
			}
			return a.sms.Close()
		}},
		{name: "Messaging", fn: func(context.Context) error { return a.messaging.Close() }},
	}
}
