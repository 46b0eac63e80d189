// Package mail sends passcode emails. SMTP delivery goes through gomail.
package mail

import (
	"context"
	"io"
)

// Message is one email to one or more recipients. When both bodies are set
// the HTML part is sent as an alternative to the text part.
type Message struct {
	From     string // falls back to the sender's configured address
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
