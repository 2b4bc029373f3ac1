// Package whatsappworker hosts the background loops for WhatsApp
// processing: the queue consumer that feeds the ingest pipeline and the
// periodic template reconciler.
package whatsappworker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/leadwire/leadwire-platform/internal/messaging"
	"github.com/leadwire/leadwire-platform/internal/tenancy"
	"github.com/leadwire/leadwire-platform/pkg/logging"
)

const deleteTimeout = 10 * time.Second

type ingestQueue interface {
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]messaging.QueueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type payloadIngestor interface {
	Ingest(ctx context.Context, payload []byte) error
}

// IngestWorker consumes queued webhook envelopes and runs each through the
// ingest pipeline under its envelope's tenant scope. Envelopes are processed
// sequentially so per-lead ordering within a payload batch holds.
type IngestWorker struct {
	queue    ingestQueue
	ingestor payloadIngestor
	logger   *logging.Logger

	batchSize int
	waitSecs  int

	wg sync.WaitGroup
}

func NewIngestWorker(queue ingestQueue, ingestor payloadIngestor, logger *logging.Logger) *IngestWorker {
	if queue == nil {
		panic("whatsappworker: queue cannot be nil")
	}
	if ingestor == nil {
		panic("whatsappworker: ingestor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestWorker{
		queue:     queue,
		ingestor:  ingestor,
		logger:    logger,
		batchSize: 5,
		waitSecs:  10,
	}
}

func (w *IngestWorker) WithBatchSize(n int) *IngestWorker {
	if n > 0 {
		w.batchSize = n
	}
	return w
}

func (w *IngestWorker) WithWaitSeconds(n int) *IngestWorker {
	if n >= 0 {
		w.waitSecs = n
	}
	return w
}

// Start launches the consumer goroutine.
func (w *IngestWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Wait blocks until the consumer goroutine exits.
func (w *IngestWorker) Wait() {
	w.wg.Wait()
}

func (w *IngestWorker) run(ctx context.Context) {
	defer w.wg.Done()
	w.logger.Debug("whatsapp ingest worker started")

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("whatsapp ingest worker stopping")
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.batchSize, w.waitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.logger.Error("failed to receive webhook envelopes", "error", err)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *IngestWorker) handleMessage(ctx context.Context, msg messaging.QueueMessage) {
	var envelope messaging.IngestEnvelope
	if err := json.Unmarshal([]byte(msg.Body), &envelope); err != nil {
		w.logger.Error("failed to decode ingest envelope", "error", err, "queue_message_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}
	if envelope.TenantID == "" {
		w.logger.Error("ingest envelope missing tenant", "envelope_id", envelope.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	tenantCtx := tenancy.WithTenantID(ctx, envelope.TenantID)
	if err := w.ingestor.Ingest(tenantCtx, envelope.Payload); err != nil {
		w.logger.Error("failed to ingest webhook payload",
			"error", err,
			"envelope_id", envelope.ID,
			"tenant_id", envelope.TenantID,
		)
	}

	// Ingest isolates its own failures, so the envelope is spent either way.
	w.deleteMessage(context.Background(), msg.ReceiptHandle)
}

func (w *IngestWorker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}

	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete queue message", "error", err)
	}
}
