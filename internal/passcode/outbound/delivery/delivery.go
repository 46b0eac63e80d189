// Package delivery sends plaintext passcodes to their owner over the
// channel the passcode was issued for.
package delivery

import (
	"context"
	"errors"
	"time"

	"github.com/baginvent/passcode/internal/passcode/entity"
	"github.com/baginvent/passcode/internal/pkg/instrument"
	"github.com/baginvent/passcode/internal/pkg/mail"
	"github.com/baginvent/passcode/internal/pkg/sms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrChannelUnsupported = errors.New("delivery: no sender configured for channel")

type Config struct {
	// Mail sends email channel codes; nil disables the channel.
	Mail mail.Mail
	// SMS sends phone channel codes; nil disables the channel.
	SMS sms.SMS
	// TTL is quoted in the message body.
	TTL        time.Duration
	Instrument instrument.Instrumentation
}

// Delivery routes a code to the sender of its channel.
type Delivery struct {
	mail mail.Mail
	sms  sms.SMS
	ttl  time.Duration
	ins  instrument.Instrumentation
}

func New(cfg Config) *Delivery {
	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = entity.DefaultTTL
	}
	return &Delivery{mail: cfg.Mail, sms: cfg.SMS, ttl: ttl, ins: ins}
}

func (d *Delivery) Send(ctx context.Context, identifier string, ch entity.Channel, code string) (err error) {
	ctx, span := d.ins.Tracer("passcode.outbound.delivery").Start(ctx, "Send")
	span.SetAttributes(attribute.String("passcode.channel", ch.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch ch {
	case entity.ChannelEmail:
		if d.mail == nil {
			return ErrChannelUnsupported
		}
		msg, err := emailMessage(identifier, code, d.ttl)
		if err != nil {
			return err
		}
		return d.mail.Send(ctx, msg)

	case entity.ChannelPhone:
		if d.sms == nil {
			return ErrChannelUnsupported
		}
		return d.sms.Send(ctx, sms.Message{To: identifier, Body: smsBody(code, d.ttl)})

	default:
		return ErrChannelUnsupported
	}
}
