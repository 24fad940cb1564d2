package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrMemoryBacklogFull is returned when a topic without consumers already
// holds MemoryConfig.Buffer messages.
var ErrMemoryBacklogFull = errors.New("messaging: memory backlog is full")

const defaultMemoryGroup = "default"

// MemoryConfig configures the in-process broker.
type MemoryConfig struct {
	// Buffer is the queue size of each consumer group. Zero means 256.
	Buffer int
	// MaxRedeliveries is how often a nacked message is requeued before it is
	// dropped. Zero means 3.
	MaxRedeliveries int
}

// Memory is an in-process Messaging. Every consumer group of a topic gets its
// own copy of each message and consumers sharing a group compete for it.
// Messages published before any group exists are held and handed to the
// first group that subscribes.
type Memory struct {
	cfg MemoryConfig

	mu     sync.Mutex
	topics map[string]*memoryTopic
	done   chan struct{}
	closed bool
}

type memoryTopic struct {
	groups  map[string]chan *memoryEnvelope
	backlog []*memoryEnvelope
}

type memoryEnvelope struct {
	id        string
	body      []byte
	headers   map[string]string
	timestamp time.Time
	attempt   int
}

// NewMemory creates an in-process broker.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.MaxRedeliveries <= 0 {
		cfg.MaxRedeliveries = 3
	}

	return &Memory{
		cfg:    cfg,
		topics: map[string]*memoryTopic{},
		done:   make(chan struct{}),
	}
}

// Close stops all consumers. Queued messages are discarded.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Publish copies msg into the queue of every group subscribed to destination.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	env := &memoryEnvelope{
		id:        uuid.NewString(),
		body:      append([]byte(nil), msg.Body...),
		headers:   maps.Clone(msg.Headers),
		timestamp: time.Now(),
	}
	result := PublishResult{MessageID: env.id, Timestamp: env.timestamp}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return PublishResult{}, io.ErrClosedPipe
	}
	topic := m.topic(destination)
	if len(topic.groups) == 0 {
		defer m.mu.Unlock()
		if len(topic.backlog) >= m.cfg.Buffer {
			return PublishResult{}, ErrMemoryBacklogFull
		}
		topic.backlog = append(topic.backlog, env)
		return result, nil
	}
	queues := make([]chan *memoryEnvelope, 0, len(topic.groups))
	for _, q := range topic.groups {
		queues = append(queues, q)
	}
	m.mu.Unlock()

	for _, q := range queues {
		cp := *env
		select {
		case q <- &cp:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		case <-m.done:
			return PublishResult{}, io.ErrClosedPipe
		}
	}

	return result, nil
}

// Consume joins the group from WithGroup ("default" when empty) on source and
// blocks until ctx is done or the broker is closed.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	group := co.group
	if group == "" {
		group = defaultMemoryGroup
	}

	queue, err := m.join(source, group)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-m.done:
					return
				case env := <-queue:
					msg := &memoryMessage{env: env, broker: m, queue: queue}
					//nolint:errcheck // handler errors are logged by the handler itself
					_ = dispatch(ctx, DriverMemory, handler, msg, co.autoAck)
				}
			}
		})
	}
	wg.Wait()

	return ctx.Err()
}

func (m *Memory) join(source, group string) (chan *memoryEnvelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, io.ErrClosedPipe
	}

	topic := m.topic(source)
	if q, ok := topic.groups[group]; ok {
		return q, nil
	}

	q := make(chan *memoryEnvelope, m.cfg.Buffer)
	for _, env := range topic.backlog {
		q <- env
	}
	topic.backlog = nil
	topic.groups[group] = q

	return q, nil
}

// topic must be called with m.mu held.
func (m *Memory) topic(name string) *memoryTopic {
	t, ok := m.topics[name]
	if !ok {
		t = &memoryTopic{groups: map[string]chan *memoryEnvelope{}}
		m.topics[name] = t
	}
	return t
}

func (m *Memory) requeue(queue chan *memoryEnvelope, env *memoryEnvelope) {
	if env.attempt >= m.cfg.MaxRedeliveries {
		slog.Warn("messaging: memory message dropped after redeliveries", "id", env.id, "attempts", env.attempt+1)
		return
	}

	next := *env
	next.attempt++
	go func() {
		select {
		case queue <- &next:
		case <-m.done:
		}
	}()
}

type memoryMessage struct {
	settleGuard

	env    *memoryEnvelope
	broker *Memory
	queue  chan *memoryEnvelope
}

func (m *memoryMessage) Body() []byte { return m.env.body }

func (m *memoryMessage) Headers() map[string]string { return m.env.headers }

func (m *memoryMessage) ID() string { return m.env.id }

func (m *memoryMessage) Timestamp() time.Time { return m.env.timestamp }

// Attempt is zero on first delivery.
func (m *memoryMessage) Attempt() int { return m.env.attempt }

func (m *memoryMessage) Ack(context.Context) error {
	m.claim()
	return nil
}

func (m *memoryMessage) Nack(context.Context) error {
	if m.claim() {
		m.broker.requeue(m.queue, m.env)
	}
	return nil
}
