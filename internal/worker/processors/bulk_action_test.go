package processors

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"productpager/internal/catalog"
	"productpager/internal/events"
	"productpager/internal/logger"
	"productpager/internal/worker/processors/validation"
)

// MockRecorder is a mock implementation of StatusRecorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) MarkCompleted(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRecorder) MarkFailed(ctx context.Context, id string, cause error) error {
	return m.Called(ctx, id, cause).Error(0)
}

func newProcessor(recorder StatusRecorder) *BulkActionProcessor {
	return NewBulkActionProcessor(logger.NewWithOutput("error", io.Discard), recorder)
}

func TestBulkActionProcessor_MarksCompleted(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("MarkCompleted", mock.Anything, "a1").Return(nil).Once()

	err := newProcessor(recorder).Process(context.Background(), events.BulkActionEvent{
		ActionID:   "a1",
		Kind:       catalog.ActionEditProducts,
		ProductIDs: []string{"p1", "p2"},
	})

	require.NoError(t, err)
	recorder.AssertExpectations(t)
}

func TestBulkActionProcessor_InvalidEventMarksFailed(t *testing.T) {
	tests := []struct {
		name  string
		event events.BulkActionEvent
	}{
		{"unknown kind", events.BulkActionEvent{ActionID: "a1", Kind: "ARCHIVE", ProductIDs: []string{"p1"}}},
		{"no products", events.BulkActionEvent{ActionID: "a1", Kind: catalog.ActionAddTags}},
		{"empty product id", events.BulkActionEvent{ActionID: "a1", Kind: catalog.ActionAddTags, ProductIDs: []string{""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := new(MockRecorder)
			recorder.On("MarkFailed", mock.Anything, "a1", mock.MatchedBy(func(err error) bool {
				return errors.Is(err, validation.ErrInvalidEvent)
			})).Return(nil).Once()

			require.NoError(t, newProcessor(recorder).Process(context.Background(), tt.event))
			recorder.AssertExpectations(t)
		})
	}
}

func TestBulkActionProcessor_HandlerFailure(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("MarkFailed", mock.Anything, "a1", mock.Anything).Return(nil).Once()

	p := newProcessor(recorder)
	p.Register(catalog.ActionDeleteProducts, func(ctx context.Context, event events.BulkActionEvent) error {
		return errors.New("product is locked")
	})

	require.NoError(t, p.Process(context.Background(), events.BulkActionEvent{
		ActionID:   "a1",
		Kind:       catalog.ActionDeleteProducts,
		ProductIDs: []string{"p1"},
	}))
	recorder.AssertExpectations(t)
}

func TestBulkActionProcessor_RecordingFailureIsReturned(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("MarkCompleted", mock.Anything, "a1").Return(errors.New("db down")).Once()

	err := newProcessor(recorder).Process(context.Background(), events.BulkActionEvent{
		ActionID:   "a1",
		Kind:       catalog.ActionAddTags,
		ProductIDs: []string{"p1"},
	})

	assert.ErrorContains(t, err, "db down")
}

func TestValidator_RejectsOversizedSelection(t *testing.T) {
	ids := make([]string, validation.MaxProductsPerAction+1)
	for i := range ids {
		ids[i] = "p"
	}
	err := validation.New(logger.NewWithOutput("error", io.Discard)).ValidateBulkAction(events.BulkActionEvent{
		ActionID:   "a1",
		Kind:       catalog.ActionAddTags,
		ProductIDs: ids,
	})
	assert.ErrorIs(t, err, validation.ErrInvalidEvent)
}
