package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/baginvent/passcode/internal/pkg/instrument"
	"github.com/baginvent/passcode/internal/pkg/messaging"
	"github.com/baginvent/passcode/internal/shared/event"
)

type countingSweeper struct {
	calls atomic.Int32
	block chan struct{}
	err   error
}

func (c *countingSweeper) Sweep(context.Context) (int64, error) {
	c.calls.Add(1)
	if c.block != nil {
		<-c.block
	}
	if c.err != nil {
		return 0, c.err
	}
	return 3, nil
}

func TestSweepJob_RunOnce(t *testing.T) {
	sw := &countingSweeper{}
	job := NewSweepJob(sw, time.Minute)

	if !job.RunOnce(context.Background()) {
		t.Fatalf("RunOnce should run")
	}
	runs, swept, last := job.Stats()
	if runs != 1 || swept != 3 || last.IsZero() {
		t.Fatalf("stats = %d, %d, %v", runs, swept, last)
	}

	sw.err = errors.New("db down")
	job.RunOnce(context.Background())
	if runs, _, _ := job.Stats(); runs != 1 {
		t.Fatalf("failed sweep counted as a run")
	}
}

func TestSweepJob_NoOverlap(t *testing.T) {
	sw := &countingSweeper{block: make(chan struct{})}
	job := NewSweepJob(sw, time.Minute)

	var wg sync.WaitGroup
	wg.Go(func() { job.RunOnce(context.Background()) })

	for sw.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	if job.RunOnce(context.Background()) {
		t.Fatalf("overlapping sweep should be skipped")
	}

	close(sw.block)
	wg.Wait()

	if sw.calls.Load() != 1 {
		t.Fatalf("sweeps = %d, want 1", sw.calls.Load())
	}
}

func TestMQHandler_SweepOnPasscodeVerified(t *testing.T) {
	sw := &countingSweeper{}
	h := &MQHandler{job: NewSweepJob(sw, time.Minute), uuid: &seqUUID{}, ins: instrument.NewNoop()}

	body, _ := json.Marshal(event.PasscodeVerifiedMessage{AccountID: 7, Identifier: "user@example.com", Channel: "email"})
	if err := h.SweepOnPasscodeVerified(context.Background(), messaging.Message{Body: body}); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if err := h.SweepOnPasscodeVerified(context.Background(), messaging.Message{Body: []byte("{")}); err != nil {
		t.Fatalf("malformed message should be acknowledged, got %v", err)
	}

	if sw.calls.Load() != 1 {
		t.Fatalf("sweeps = %d, want 1", sw.calls.Load())
	}
}

func TestMQConsumer_EndToEnd(t *testing.T) {
	bus := messaging.NewMemory()
	t.Cleanup(func() { _ = bus.Close() })

	sw := &countingSweeper{}
	h := &MQHandler{job: NewSweepJob(sw, time.Minute), uuid: &seqUUID{}, ins: instrument.NewNoop()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Consume(ctx, event.PasscodeVerifiedDestination, h.SweepOnPasscodeVerified,
			messaging.WithGroup(event.PasscodeVerifiedDestinationConsumerSweeper))
	}()

	body, _ := json.Marshal(event.PasscodeVerifiedMessage{AccountID: 1})
	deadline := time.Now().Add(2 * time.Second)
	for sw.calls.Load() == 0 && time.Now().Before(deadline) {
		_ = bus.Publish(ctx, event.PasscodeVerifiedDestination, messaging.Message{Body: body})
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	if sw.calls.Load() == 0 {
		t.Fatalf("consumer never triggered a sweep")
	}
}
