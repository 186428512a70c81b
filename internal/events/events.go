package events

import (
	"context"
	"time"

	"productpager/internal/catalog"
)

// BulkActionEvent asks the worker to run a bulk action recorded in the
// database under ActionID.
type BulkActionEvent struct {
	ActionID    string             `json:"action_id"`
	Shop        string             `json:"shop"`
	Kind        catalog.ActionKind `json:"kind"`
	ProductIDs  []string           `json:"product_ids"`
	RequestedAt time.Time          `json:"requested_at"`
}

// Publisher hands bulk-action events to the worker.
type Publisher interface {
	PublishBulkAction(ctx context.Context, event BulkActionEvent) error
	Close() error
}
