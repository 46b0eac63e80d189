package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/baginvent/passcode/internal/pkg/mail"
	"github.com/baginvent/passcode/internal/pkg/sms"
)

// Console prints messages to a writer instead of sending them. It stands in
// for the SMTP and SMS senders in local environments and is written outside
// slog so codes never reach the structured log pipeline.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stderr
	}
	return &Console{w: w}
}

var (
	_ mail.Mail = (*Console)(nil)
	_ sms.SMS   = (*ConsoleSMS)(nil)
)

func (c *Console) Send(_ context.Context, msg mail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.w, "[mail] to=%v subject=%q\n%s\n", msg.To, msg.Subject, msg.TextBody)
	return err
}

func (c *Console) Close() error { return nil }

// SMS returns a view of c that satisfies sms.SMS.
func (c *Console) SMS() *ConsoleSMS {
	return &ConsoleSMS{c: c}
}

type ConsoleSMS struct {
	c *Console
}

func (s *ConsoleSMS) Send(_ context.Context, msg sms.Message) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	_, err := fmt.Fprintf(s.c.w, "[sms] to=%s\n%s\n", msg.To, msg.Body)
	return err
}

func (s *ConsoleSMS) Close() error { return nil }
