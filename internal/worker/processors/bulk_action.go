package processors

import (
	"context"
	"fmt"

	"productpager/internal/catalog"
	"productpager/internal/events"
	"productpager/internal/logger"
	"productpager/internal/metrics"
	"productpager/internal/worker/processors/validation"
)

// StatusRecorder persists the outcome of a bulk action.
type StatusRecorder interface {
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

// Handler runs one kind of bulk action.
type Handler func(ctx context.Context, event events.BulkActionEvent) error

type BulkActionProcessor struct {
	logger    *logger.Logger
	validator *validation.Validator
	recorder  StatusRecorder
	handlers  map[catalog.ActionKind]Handler
}

// NewBulkActionProcessor registers a logging handler for every kind. Register
// replaces one with a handler that mutates products.
func NewBulkActionProcessor(logger *logger.Logger, recorder StatusRecorder) *BulkActionProcessor {
	p := &BulkActionProcessor{
		logger:    logger,
		validator: validation.New(logger),
		recorder:  recorder,
		handlers:  make(map[catalog.ActionKind]Handler),
	}
	for _, kind := range []catalog.ActionKind{
		catalog.ActionEditProducts,
		catalog.ActionAddTags,
		catalog.ActionRemoveTags,
		catalog.ActionDeleteProducts,
	} {
		p.Register(kind, p.logAction)
	}
	return p
}

func (p *BulkActionProcessor) Register(kind catalog.ActionKind, h Handler) {
	p.handlers[kind] = h
}

// Process runs the event and records the outcome. The returned error is the
// recording error only: a failed action is a handled outcome.
func (p *BulkActionProcessor) Process(ctx context.Context, event events.BulkActionEvent) error {
	runErr := p.run(ctx, event)

	status := "completed"
	var err error
	if runErr != nil {
		status = "failed"
		p.logger.Warn("Bulk action %s (%s) failed: %v", event.ActionID, event.Kind, runErr)
		err = p.recorder.MarkFailed(ctx, event.ActionID, runErr)
	} else {
		err = p.recorder.MarkCompleted(ctx, event.ActionID)
	}
	metrics.BulkActions.WithLabelValues(string(event.Kind), status).Inc()

	if err != nil {
		return fmt.Errorf("failed to record bulk action %s: %w", event.ActionID, err)
	}
	return nil
}

func (p *BulkActionProcessor) run(ctx context.Context, event events.BulkActionEvent) error {
	if err := p.validator.ValidateBulkAction(event); err != nil {
		return err
	}
	h, ok := p.handlers[event.Kind]
	if !ok {
		return fmt.Errorf("no handler for %s", event.Kind)
	}
	return h(ctx, event)
}

func (p *BulkActionProcessor) logAction(ctx context.Context, event events.BulkActionEvent) error {
	p.logger.Info("Bulk action %s on %s: %s for %d products %v",
		event.ActionID, event.Shop, event.Kind, len(event.ProductIDs), event.ProductIDs)
	return nil
}
