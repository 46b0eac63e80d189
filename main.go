package main

import (
	"context"
	"time"

	"github.com/baginvent/passcode/internal/app"
)

// @title           Passcode API
// @version         1.0
// @description     Passcode issues and verifies one-time passcodes sent by email or SMS.
// @contact.name    Contact Support
// @contact.email   support@baginvent.com
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
func main() {
	application := app.New()
	<-application.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx)
}
