package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"productpager/internal/config"
	"productpager/internal/events"
	"productpager/internal/logger"
	"productpager/internal/metrics"
)

// MessageReader is the subset of kafka.Reader the worker uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Processor handles one decoded bulk-action event.
type Processor interface {
	Process(ctx context.Context, event events.BulkActionEvent) error
}

const (
	initialRetryBackoff = time.Second
	maxRetryBackoff     = 30 * time.Second
)

type Worker struct {
	logger    *logger.Logger
	reader    MessageReader
	processor Processor

	retryBackoff time.Duration
	maxBackoff   time.Duration
}

func New(cfg *config.Config, logger *logger.Logger, processor Processor) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.KafkaBulkTopic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return NewWithReader(reader, logger, processor)
}

func NewWithReader(reader MessageReader, logger *logger.Logger, processor Processor) *Worker {
	return &Worker{
		logger:       logger,
		reader:       reader,
		processor:    processor,
		retryBackoff: initialRetryBackoff,
		maxBackoff:   maxRetryBackoff,
	}
}

// Start consumes events until ctx is cancelled. Undecodable messages are
// committed and skipped. A message whose outcome could not be recorded is
// retried with backoff and the worker does not fetch past it until it
// succeeds, so its offset is never committed over.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started, listening for bulk actions...")

	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				w.logger.Info("Worker stopped")
				return nil
			}
			w.logger.Error("Failed to read message: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		w.logger.Debug("Received message at offset %d: %s", message.Offset, string(message.Value))

		if err := w.handleWithRetry(ctx, message); err != nil {
			w.logger.Info("Worker stopped with offset %d uncommitted", message.Offset)
			return nil
		}

		if err := w.reader.CommitMessages(ctx, message); err != nil {
			w.logger.Error("Failed to commit offset %d: %v", message.Offset, err)
		}
	}
}

// handleWithRetry runs handle until it succeeds, doubling the wait between
// attempts up to maxBackoff. It only gives up when ctx is done.
func (w *Worker) handleWithRetry(ctx context.Context, message kafka.Message) error {
	backoff := w.retryBackoff
	for attempt := 1; ; attempt++ {
		err := w.handle(ctx, message)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		w.logger.Error("Failed to process message at offset %d (attempt %d), retrying in %s: %v",
			message.Offset, attempt, backoff, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, w.maxBackoff)
	}
}

func (w *Worker) handle(ctx context.Context, message kafka.Message) error {
	var event events.BulkActionEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		w.logger.Error("Failed to parse event, skipping: %v", err)
		return nil
	}

	metrics.WorkerActiveCount.Inc()
	defer metrics.WorkerActiveCount.Dec()

	return w.processor.Process(ctx, event)
}

func (w *Worker) Stop() error {
	w.logger.Info("Stopping worker...")
	return w.reader.Close()
}
