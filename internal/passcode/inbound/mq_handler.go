package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/baginvent/passcode/internal/pkg/instrument"
	"github.com/baginvent/passcode/internal/pkg/messaging"
	"github.com/baginvent/passcode/internal/pkg/uid"
	"github.com/baginvent/passcode/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	job  *SweepJob
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// SweepOnPasscodeVerified purges expired passcodes after a verification,
// off the request path. Malformed messages are logged and acknowledged.
func (h *MQHandler) SweepOnPasscodeVerified(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("passcode.inbound.mq").Start(ctx, "SweepOnPasscodeVerified")
	defer span.End()

	var payload event.PasscodeVerifiedMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of passcode verified", "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: passcode verified", "account_id", payload.AccountID, "channel", payload.Channel)

	if !h.job.RunOnce(ctx) {
		slog.DebugContext(ctx, "sweep already running, skipping")
	}

	return nil
}
