package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, tenantID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New(), tenantID),
		Data:            "test data",
	}
}

// testHandler records the events it receives
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	contexts   []context.Context
	err        error
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	h.contexts = append(h.contexts, ctx)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panickingHandler) EventTypes() []string                             { return []string{"TestEvent"} }

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)

	event := newTestEvent("TestEvent", uuid.New())
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_MultipleEventsAndHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler1 := newTestHandler("TestEvent")
	handler2 := newTestHandler("TestEvent")
	wildcard := newTestHandler()
	bus.Subscribe(handler1)
	bus.Subscribe(handler2)
	bus.Subscribe(wildcard)

	err := bus.Publish(context.Background(),
		newTestEvent("TestEvent", uuid.New()),
		newTestEvent("OtherEvent", uuid.New()),
	)
	require.NoError(t, err)

	assert.Len(t, handler1.getHandled(), 1)
	assert.Len(t, handler2.getHandled(), 1)
	assert.Len(t, wildcard.getHandled(), 2)
}

func TestInMemoryEventBus_Publish_ReturnsHandlerErrors(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := newTestHandler("TestEvent")
	failing.setError(errors.New("handler error"))
	healthy := newTestHandler("TestEvent")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	event := newTestEvent("TestEvent", uuid.New())
	err := bus.Publish(context.Background(), event)

	require.Error(t, err)
	var handlerErr *HandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.Equal(t, event.EventID().String(), handlerErr.EventID)
	assert.Contains(t, err.Error(), "handler error")
	assert.Len(t, healthy.getHandled(), 1, "remaining handlers still run")
}

func TestInMemoryEventBus_Publish_JoinsEveryFailure(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	first := newTestHandler("TestEvent")
	first.setError(errors.New("first"))
	second := newTestHandler("TestEvent")
	second.setError(errors.New("second"))
	bus.Subscribe(first)
	bus.Subscribe(second)

	err := bus.Publish(context.Background(), newTestEvent("TestEvent", uuid.New()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}

func TestInMemoryEventBus_Publish_RecoversPanics(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(panickingHandler{})

	err := bus.Publish(context.Background(), newTestEvent("TestEvent", uuid.New()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	handler := newTestHandler("TestEvent")
	bus.Subscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent", uuid.New())))

	bus.Unsubscribe(handler)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("TestEvent", uuid.New())))

	assert.Len(t, handler.getHandled(), 1)
}

func TestInMemoryEventBus_StopRejectsPublishing(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))

	err := bus.Publish(ctx, newTestEvent("TestEvent", uuid.New()))
	assert.ErrorIs(t, err, ErrBusStopped)

	require.NoError(t, bus.Start(ctx))
	assert.NoError(t, bus.Publish(ctx, newTestEvent("TestEvent", uuid.New())))
}
