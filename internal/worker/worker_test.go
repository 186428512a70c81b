package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"productpager/internal/catalog"
	"productpager/internal/events"
	"productpager/internal/logger"
)

// fakeReader replays a fixed set of messages, then blocks until ctx is done.
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

// MockProcessor is a mock implementation of Processor
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, event events.BulkActionEvent) error {
	return m.Called(ctx, event).Error(0)
}

func eventMessage(t *testing.T, offset int64, event events.BulkActionEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Key: []byte(event.ActionID), Value: value}
}

func quietWorker(reader MessageReader, processor Processor) *Worker {
	w := NewWithReader(reader, logger.NewWithOutput("error", io.Discard), processor)
	w.retryBackoff = time.Millisecond
	w.maxBackoff = 4 * time.Millisecond
	return w
}

func isAction(id string) interface{} {
	return mock.MatchedBy(func(e events.BulkActionEvent) bool { return e.ActionID == id })
}

func TestWorker_ProcessesAndCommits(t *testing.T) {
	first := events.BulkActionEvent{ActionID: "a1", Kind: catalog.ActionAddTags, ProductIDs: []string{"p1"}}
	second := events.BulkActionEvent{ActionID: "a2", Kind: catalog.ActionDeleteProducts, ProductIDs: []string{"p2"}}

	reader := &fakeReader{messages: []kafka.Message{
		eventMessage(t, 1, first),
		{Offset: 2, Value: []byte("not json")},
		eventMessage(t, 3, second),
	}}

	processed := make(chan string, 2)
	signal := func(args mock.Arguments) { processed <- args.Get(1).(events.BulkActionEvent).ActionID }

	processor := new(MockProcessor)
	processor.On("Process", mock.Anything, isAction("a1")).Run(signal).Return(nil).Once()
	processor.On("Process", mock.Anything, isAction("a2")).Run(signal).Return(nil).Once()

	w := quietWorker(reader, processor)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	for _, want := range []string{"a1", "a2"} {
		select {
		case got := <-processed:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
	require.Eventually(t, func() bool { return len(reader.commits()) == 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{1, 2, 3}, reader.commits(), "unparseable messages are committed and skipped")
	processor.AssertExpectations(t)

	require.NoError(t, w.Stop())
	assert.True(t, reader.closed)
}

func TestWorker_RetriesFailedMessageBeforeMovingOn(t *testing.T) {
	first := events.BulkActionEvent{ActionID: "a1", Kind: catalog.ActionAddTags, ProductIDs: []string{"p1"}}
	second := events.BulkActionEvent{ActionID: "a2", Kind: catalog.ActionDeleteProducts, ProductIDs: []string{"p2"}}

	reader := &fakeReader{messages: []kafka.Message{
		eventMessage(t, 1, first),
		eventMessage(t, 2, second),
	}}

	var (
		mu    sync.Mutex
		calls []string
	)
	record := func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, args.Get(1).(events.BulkActionEvent).ActionID)
	}

	processor := new(MockProcessor)
	processor.On("Process", mock.Anything, isAction("a1")).Run(record).Return(errors.New("db down")).Twice()
	processor.On("Process", mock.Anything, isAction("a1")).Run(record).Return(nil).Once()
	processor.On("Process", mock.Anything, isAction("a2")).Run(record).Return(nil).Once()

	w := quietWorker(reader, processor)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return len(reader.commits()) == 2 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	assert.Equal(t, []string{"a1", "a1", "a1", "a2"}, calls)
	mu.Unlock()
	assert.Equal(t, []int64{1, 2}, reader.commits())
	processor.AssertExpectations(t)
}

func TestWorker_StopsWithoutCommittingWhileRetrying(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		eventMessage(t, 1, events.BulkActionEvent{ActionID: "a1", Kind: catalog.ActionAddTags}),
		eventMessage(t, 2, events.BulkActionEvent{ActionID: "a2", Kind: catalog.ActionAddTags}),
	}}

	attempts := make(chan struct{}, 100)
	processor := new(MockProcessor)
	processor.On("Process", mock.Anything, isAction("a1")).
		Run(func(mock.Arguments) { attempts <- struct{}{} }).
		Return(errors.New("db down"))

	w := quietWorker(reader, processor)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-attempts:
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for a retry")
		}
	}
	cancel()
	require.NoError(t, <-done)

	assert.Empty(t, reader.commits())
	processor.AssertNotCalled(t, "Process", mock.Anything, isAction("a2"))
}
