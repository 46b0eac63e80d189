// Package messaging publishes and consumes domain events without tying
// business code to a broker.
//
// Drivers: NATS (queue subscriptions), Kafka (consumer groups) and an
// in-process memory bus for single-node setups and tests.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	DriverNATS   = "nats"
	DriverKafka  = "kafka"
	DriverMemory = "memory"
)

var (
	ErrTopicRequired   = errors.New("messaging: topic is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
	ErrClosed          = errors.New("messaging: client closed")
	ErrUnknownDriver   = errors.New("messaging: unknown driver")
)

// Messaging is a broker client that can publish and consume.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
}

// Consumer blocks in Consume until ctx is done or the subscription fails.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error
}

type Handler func(ctx context.Context, msg Message) error

type Message struct {
	Topic   string
	Key     []byte
	Body    []byte
	Headers map[string]string
}

// Header returns the header value for key, or "".
func (m Message) Header(key string) string {
	return m.Headers[key]
}

// FactoryOptions carries the settings of every backend; only the selected
// one is read.
type FactoryOptions struct {
	Kafka KafkaConfig
	NATS  NATSConfig
}

// NewFromDriver builds the backend named by driver. An empty driver selects
// the in-process bus.
func NewFromDriver(driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverMemory, "":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
}

type consumeOptions struct {
	concurrency int
	group       string
}

type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	co.concurrency = max(co.concurrency, 1)
	return co
}

// WithConcurrency sets how many handler goroutines process messages in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithGroup sets the Kafka consumer group or the NATS queue group.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}
