package pipeline

import "encoding/json"

type EventType string

const (
	EventSources  EventType = "sources"
	EventResponse EventType = "response"
	EventEnd      EventType = "end"
	EventError    EventType = "error"
)

// Event is one externally visible pipeline event. Per invocation the
// emitted sequence is: one sources event, zero or more response deltas
// in generation order, then exactly one terminal end or error event.
type Event struct {
	Type    EventType
	Sources []Passage
	Delta   string
	Message string
}

// genericFailureMessage is the only error text ever shown to a
// consumer; the underlying error is logged instead.
const genericFailureMessage = "An error has occurred please try again later"

func (e Event) MarshalJSON() ([]byte, error) {
	payload := struct {
		Type EventType `json:"type"`
		Data any       `json:"data,omitempty"`
	}{Type: e.Type}

	switch e.Type {
	case EventSources:
		sources := e.Sources
		if sources == nil {
			sources = []Passage{}
		}
		payload.Data = sources
	case EventResponse:
		payload.Data = e.Delta
	case EventError:
		payload.Data = e.Message
	}
	return json.Marshal(payload)
}
