package validation

import (
	"errors"
	"fmt"

	"productpager/internal/events"
	"productpager/internal/logger"
)

var ErrInvalidEvent = errors.New("invalid bulk action event")

// MaxProductsPerAction matches the largest selection a product page can hold
// before the Admin API bulk limits kick in.
const MaxProductsPerAction = 250

type Validator struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Validator {
	return &Validator{
		logger: logger,
	}
}

// ValidateBulkAction rejects events the worker cannot act on.
func (v *Validator) ValidateBulkAction(event events.BulkActionEvent) error {
	switch {
	case event.ActionID == "":
		return fmt.Errorf("%w: missing action id", ErrInvalidEvent)
	case !event.Kind.Valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, event.Kind)
	case len(event.ProductIDs) == 0:
		return fmt.Errorf("%w: no products selected", ErrInvalidEvent)
	case len(event.ProductIDs) > MaxProductsPerAction:
		return fmt.Errorf("%w: %d products exceeds limit of %d", ErrInvalidEvent, len(event.ProductIDs), MaxProductsPerAction)
	}

	seen := make(map[string]struct{}, len(event.ProductIDs))
	for _, id := range event.ProductIDs {
		if id == "" {
			return fmt.Errorf("%w: empty product id", ErrInvalidEvent)
		}
		if _, dup := seen[id]; dup {
			v.logger.Debug("Duplicate product id %s in bulk action %s", id, event.ActionID)
		}
		seen[id] = struct{}{}
	}
	return nil
}
