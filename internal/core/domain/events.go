package domain

// EventType identifies a realtime event delivered over the change feed.
type EventType string

const (
	// EventTicketsInvalidated is the opaque "something changed" signal.
	// Consumers react by refetching the full ticket snapshot; no payload is
	// guaranteed and no incremental merge is attempted.
	EventTicketsInvalidated EventType = "tickets.invalidated"

	// EventPong answers a client-side keep-alive ping.
	EventPong EventType = "pong"
)

// Event is a message on the realtime change feed.
type Event struct {
	Type EventType `json:"type"`
}

// InvalidateEvent returns the canonical invalidation signal.
func InvalidateEvent() Event {
	return Event{Type: EventTicketsInvalidated}
}
