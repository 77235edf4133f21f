package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	specific := newTestHandler("A")
	wildcard := newTestHandler()

	registry.Register(specific, "A", "B")
	registry.Register(wildcard)

	assert.Equal(t, 2, len(registry.GetHandlers("A")))
	assert.Same(t, specific, registry.GetHandlers("A")[0], "type-specific handlers run first")
	assert.Len(t, registry.GetHandlers("B"), 2)
	assert.Len(t, registry.GetHandlers("C"), 1)
}

func TestHandlerRegistry_RegisterTwiceIsNoop(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler("A")

	registry.Register(handler, "A")
	registry.Register(handler, "A")

	assert.Len(t, registry.GetHandlers("A"), 1)
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	registry := NewHandlerRegistry()
	keep := newTestHandler("A")
	drop := newTestHandler("A")

	registry.Register(keep, "A")
	registry.Register(drop, "A", "B")
	registry.Register(drop)

	registry.Unregister(drop)

	assert.Len(t, registry.GetHandlers("A"), 1)
	assert.Empty(t, registry.GetHandlers("B"))
	assert.Len(t, registry.GetAllHandlers(), 1)
}

func TestHandlerRegistry_GetAllHandlersIsDistinct(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newTestHandler("A")

	registry.Register(handler, "A", "B")
	registry.Register(handler)

	assert.Len(t, registry.GetAllHandlers(), 1)
}
