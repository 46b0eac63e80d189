package delivery

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/baginvent/passcode/internal/pkg/mail"
)

const emailSubject = "Your verification code"

var emailHTML = template.Must(template.New("passcode").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Your verification code is:</h2>
  <div style="background: #f4f4f4; padding: 20px; text-align: center; font-size: 32px; letter-spacing: 8px; font-weight: bold;">{{.Code}}</div>
  <p style="color: #666; font-size: 14px;">This code will expire in {{.Minutes}} minutes.</p>
  <p style="color: #999; font-size: 12px;">If you didn't request this code, please ignore this email.</p>
</div>`))

func minutes(ttl time.Duration) int {
	m := int(ttl / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

func smsBody(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your verification code is: %s. Valid for %d minutes.", code, minutes(ttl))
}

func emailMessage(to, code string, ttl time.Duration) (mail.Message, error) {
	var buf bytes.Buffer
	if err := emailHTML.Execute(&buf, struct {
		Code    string
		Minutes int
	}{code, minutes(ttl)}); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:       []string{to},
		Subject:  emailSubject,
		TextBody: smsBody(code, ttl),
		HTMLBody: buf.String(),
	}, nil
}
