package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// IngestEnvelope wraps a raw webhook payload for queued processing. The
// tenant travels with the payload because the consumer runs outside the
// request context.
type IngestEnvelope struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// QueueMessage is one dequeued item.
type QueueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

// Queue is the transport the ingest pipeline runs over.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// MemoryQueue is a Queue backed by an in-memory buffered channel. It backs
// single-process deployments and tests.
type MemoryQueue struct {
	ch chan QueueMessage
}

// NewMemoryQueue creates a MemoryQueue with the provided buffer capacity.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{
		ch: make(chan QueueMessage, buffer),
	}
}

// Send enqueues a payload or blocks until ctx is done.
func (q *MemoryQueue) Send(ctx context.Context, body string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	msg := QueueMessage{
		ID:            uuid.NewString(),
		Body:          body,
		ReceiptHandle: uuid.NewString(),
	}

	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive blocks until a message is available, ctx is done, or waitSeconds
// elapses.
func (q *MemoryQueue) Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]QueueMessage, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxMessages <= 0 {
		maxMessages = 1
	}

	var timer *time.Timer
	if waitSeconds > 0 {
		timer = time.NewTimer(time.Duration(waitSeconds) * time.Second)
		defer timer.Stop()
	}

	if timer == nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg := <-q.ch:
			return q.collect(ctx, msg, maxMessages), nil
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil
	case msg := <-q.ch:
		return q.collect(ctx, msg, maxMessages), nil
	}
}

// Delete is a no-op for the in-memory queue.
func (q *MemoryQueue) Delete(_ context.Context, _ string) error {
	return nil
}

func (q *MemoryQueue) collect(ctx context.Context, first QueueMessage, max int) []QueueMessage {
	messages := make([]QueueMessage, 0, max)
	messages = append(messages, first)

	for len(messages) < max {
		select {
		case <-ctx.Done():
			return messages
		case msg := <-q.ch:
			messages = append(messages, msg)
		default:
			return messages
		}
	}
	return messages
}

// Publisher enqueues webhook payloads for asynchronous ingestion.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("messaging: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// Publish wraps the raw payload in an envelope and enqueues it.
func (p *Publisher) Publish(ctx context.Context, tenantID string, payload []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	envelope := IngestEnvelope{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		ReceivedAt: time.Now().UTC(),
		Payload:    json.RawMessage(payload),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("messaging: encode ingest envelope: %w", err)
	}

	if err := p.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("messaging: enqueue webhook payload: %w", err)
	}

	p.logger.Debug("webhook payload enqueued", "envelope_id", envelope.ID, "tenant_id", tenantID)
	return nil
}

// Ensure interface compliance
var _ Queue = (*MemoryQueue)(nil)
