package app

import (
	"log/slog"
	"os"

	"github.com/baginvent/passcode/internal/passcode"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.passcode.enabled") {
		dep := passcode.Dependency{
			Ctx:        a.ctx,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Throttle:   a.throttle,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			HMAC:       a.hmac,
			Generator:  a.generator,
			Clock:      a.clock,
			Validator:  a.validator,
			DBConn:     a.dbConn,
			Mail:       a.mail,
			SMS:        a.sms,
			JWT:        a.jwt,
		}
		// a nil *redis.Client must stay a nil interface
		if a.cacheConn != nil {
			dep.CacheConn = a.cacheConn
		}

		if err := passcode.New(dep); err != nil {
			slog.Error("failed to init module passcode", "error", err)
			os.Exit(1)
		}
	}
}
