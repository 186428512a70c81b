package presentation

import (
	"context"
	"fmt"
	"strings"

	"productpager/internal/catalog"
)

// Notifier shows a short transient message to the merchant.
type Notifier interface {
	Notify(message string)
}

type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) {
	f(message)
}

// Dispatcher queues a bulk action with the backend and returns its id.
type Dispatcher interface {
	DispatchBulkAction(ctx context.Context, kind catalog.ActionKind, productIDs []string) (string, error)
}

// Action describes one entry of the bulk-action menu.
type Action struct {
	Kind        catalog.ActionKind
	Label       string
	Promoted    bool
	Destructive bool
}

var actions = []Action{
	{Kind: catalog.ActionEditProducts, Label: "Edit products", Promoted: true},
	{Kind: catalog.ActionAddTags, Label: "Add tags"},
	{Kind: catalog.ActionRemoveTags, Label: "Remove tags"},
	{Kind: catalog.ActionDeleteProducts, Label: "Delete products", Destructive: true},
}

// Actions lists the bulk actions in menu order.
func Actions() []Action {
	return append([]Action(nil), actions...)
}

type BulkActions struct {
	notifier   Notifier
	dispatcher Dispatcher
}

// NewBulkActions wires the toast sink and an optional dispatcher. With a nil
// dispatcher actions only produce feedback.
func NewBulkActions(notifier Notifier, dispatcher Dispatcher) *BulkActions {
	return &BulkActions{notifier: notifier, dispatcher: dispatcher}
}

// Perform shows the feedback for kind and, when products are selected,
// queues the action.
func (b *BulkActions) Perform(ctx context.Context, kind catalog.ActionKind, productIDs []string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown bulk action %q", kind)
	}

	b.notifier.Notify(Message(kind, productIDs))

	if len(productIDs) == 0 || b.dispatcher == nil {
		return nil
	}

	if _, err := b.dispatcher.DispatchBulkAction(ctx, kind, productIDs); err != nil {
		b.notifier.Notify("Failed to queue bulk action: " + err.Error())
		return fmt.Errorf("failed to dispatch %s: %w", kind, err)
	}
	return nil
}

// Message is the toast text shown when kind is triggered.
func Message(kind catalog.ActionKind, productIDs []string) string {
	switch kind {
	case catalog.ActionEditProducts:
		return "Bulk edit products"
	case catalog.ActionAddTags:
		return "Bulk add tags"
	case catalog.ActionRemoveTags:
		return "Bulk remove tags"
	case catalog.ActionDeleteProducts:
		if len(productIDs) == 0 {
			return "No products selected for deletion"
		}
		return "Deleting products with IDs: " + strings.Join(productIDs, ", ")
	}
	return string(kind)
}
