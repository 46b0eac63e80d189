package delivery

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/mail"
	"github.com/baginvent/passcode/internal/pkg/sms"
)

type fakeMail struct {
	sent []mail.Message
	err  error
}

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeMail) Close() error { return nil }

type fakeSMS struct {
	sent []sms.Message
}

func (f *fakeSMS) Send(_ context.Context, msg sms.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSMS) Close() error { return nil }

func TestDelivery_Email(t *testing.T) {
	m := &fakeMail{}
	d := New(Config{Mail: m, TTL: 5 * time.Minute})

	if err := d.Send(context.Background(), "user@example.com", entity.ChannelEmail, "123456"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(m.sent))
	}

	msg := m.sent[0]
	if msg.To[0] != "user@example.com" || msg.Subject != "Your verification code" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.Contains(msg.HTMLBody, "123456") || !strings.Contains(msg.HTMLBody, "5 minutes") {
		t.Fatalf("html body missing code or ttl: %s", msg.HTMLBody)
	}
	if msg.TextBody != "Your verification code is: 123456. Valid for 5 minutes." {
		t.Fatalf("text body = %q", msg.TextBody)
	}
}

func TestDelivery_Phone(t *testing.T) {
	s := &fakeSMS{}
	d := New(Config{SMS: s})

	if err := d.Send(context.Background(), "+15551234567", entity.ChannelPhone, "000042"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	want := sms.Message{To: "+15551234567", Body: "Your verification code is: 000042. Valid for 10 minutes."}
	if len(s.sent) != 1 || s.sent[0] != want {
		t.Fatalf("sent = %+v, want %+v", s.sent, want)
	}
}

func TestDelivery_Errors(t *testing.T) {
	boom := errors.New("smtp down")
	d := New(Config{Mail: &fakeMail{err: boom}})

	if err := d.Send(context.Background(), "user@example.com", entity.ChannelEmail, "123456"); !errors.Is(err, boom) {
		t.Fatalf("want provider error, got %v", err)
	}
	if err := d.Send(context.Background(), "+15551234567", entity.ChannelPhone, "123456"); !errors.Is(err, ErrChannelUnsupported) {
		t.Fatalf("want ErrChannelUnsupported, got %v", err)
	}
	if err := d.Send(context.Background(), "x", entity.ChannelUnknown, "123456"); !errors.Is(err, ErrChannelUnsupported) {
		t.Fatalf("want ErrChannelUnsupported, got %v", err)
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	d := New(Config{Mail: c, SMS: c.SMS()})

	if err := d.Send(context.Background(), "user@example.com", entity.ChannelEmail, "111111"); err != nil {
		t.Fatalf("Send email: %v", err)
	}
	if err := d.Send(context.Background(), "+15551234567", entity.ChannelPhone, "222222"); err != nil {
		t.Fatalf("Send sms: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "111111") || !strings.Contains(out, "222222") {
		t.Fatalf("console output missing codes: %s", out)
	}
}
