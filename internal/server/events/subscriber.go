package events

// Subscriber consumes events. Implementations adapt the event stream to a
// specific transport.
type Subscriber interface {
	// Send delivers an event. It should not block for long; the broker calls
	// it from its own goroutine per event.
	Send(Event) error

	// Close shuts the subscriber down.
	Close() error
}
