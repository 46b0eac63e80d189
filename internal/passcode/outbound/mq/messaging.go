package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/baginvent/passcode/internal/passcode/usecase"
	"github.com/baginvent/passcode/internal/pkg/instrument"
	"github.com/baginvent/passcode/internal/pkg/messaging"
	"github.com/baginvent/passcode/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	if ins == nil {
		ins = instrument.NewNoop()
	}
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishPasscodeVerified(ctx context.Context, msg usecase.PasscodeVerifiedEvent) error {
	ctx, span := m.ins.Tracer("passcode.outbound.mq").Start(ctx, "PublishPasscodeVerified")
	defer span.End()

	body, err := json.Marshal(event.PasscodeVerifiedMessage{
		AccountID:  msg.AccountID,
		Identifier: msg.Identifier,
		Channel:    msg.Channel.String(),
		VerifiedAt: msg.VerifiedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, event.PasscodeVerifiedDestination, messaging.Message{
		Key:     []byte(strconv.FormatInt(msg.AccountID, 10)),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: cID},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
