package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/baginvent/passcode/internal/pkg/config"
	"github.com/baginvent/passcode/internal/pkg/goroutine"
	"github.com/baginvent/passcode/internal/pkg/instrument"
	"github.com/baginvent/passcode/internal/pkg/messaging"
	"github.com/baginvent/passcode/internal/pkg/uid"
	"github.com/baginvent/passcode/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	consumer messaging.Consumer,
	uuid uid.StringID,
	job *SweepJob,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{job: job, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.passcode.consumer_names")

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // kafka consumer group or nats queue group
		handler messaging.Handler
	}{
		{
			name:    event.PasscodeVerifiedDestinationConsumerSweeper,
			topic:   event.PasscodeVerifiedDestination,
			group:   event.PasscodeVerifiedDestinationConsumerSweeper,
			handler: mqHandler.SweepOnPasscodeVerified,
		},
	}

	for _, c := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, c.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", c.name)
				return consumer.Consume(pCtx,
					c.topic,
					c.handler,
					messaging.WithGroup(c.group),
					messaging.WithConcurrency(1),
				)
			})
		}
	}
}
