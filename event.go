// Package llmlab defines the domain types shared by the exercise runner:
// requests, streamed fragments, the transport contract and the published
// state that user interfaces observe.
package llmlab

// Event is a sealed interface representing a streaming event.
// Transport/protocol errors come from Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta carries one fragment of reply text.
type EventTextDelta struct {
	Delta string
}

func (EventTextDelta) event() {}

// Interface compliance check.
var _ Event = EventTextDelta{}
