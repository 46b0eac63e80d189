package messaging

import (
	"context"
	"log/slog"
	"sync"
)

type memorySub struct {
	group string
	ch    chan Message
}

// Memory is an in-process bus. Each group receives a message once;
// subscribers without a group each receive every message.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	next   map[string]int
	closed bool
}

// NewMemory returns an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{
		subs: map[string][]*memorySub{},
		next: map[string]int{},
	}
}

// Close stops accepting publishes.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Publish enqueues msg to the topic's subscribers. It blocks while a
// subscriber's buffer is full and returns early if ctx ends.
func (m *Memory) Publish(ctx context.Context, topic string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}

	targets, err := m.targets(topic)
	if err != nil {
		return err
	}

	msg.Topic = topic
	for _, s := range targets {
		select {
		case s.ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Memory) targets(topic string) ([]*memorySub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	var (
		out    []*memorySub
		groups = map[string][]*memorySub{}
	)
	for _, s := range m.subs[topic] {
		if s.group == "" {
			out = append(out, s)
			continue
		}
		groups[s.group] = append(groups[s.group], s)
	}
	for g, members := range groups {
		key := topic + "\x00" + g
		out = append(out, members[m.next[key]%len(members)])
		m.next[key]++
	}
	return out, nil
}

// Consume registers a subscriber and blocks until ctx is done.
func (m *Memory) Consume(ctx context.Context, topic string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	sub := &memorySub{group: co.group, ch: make(chan Message, 64)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.subs[topic] = append(m.subs[topic], sub)
	m.mu.Unlock()

	defer m.remove(topic, sub)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-sub.ch:
					if err := callHandler(ctx, DriverMemory, handler, msg); err != nil {
						slog.WarnContext(ctx, "memory handler failed", "topic", topic, "error", err)
					}
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}

func (m *Memory) remove(topic string, sub *memorySub) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.subs[topic]
	for i := range subs {
		if subs[i] == sub {
			m.subs[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}
