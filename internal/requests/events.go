package requests

// Lifecycle event names published to Config.Publisher.
const (
	EventSent     = "request_sent"
	EventAccepted = "response_accepted"
	EventStale    = "response_stale"
	EventFailed   = "request_failed"
)

// Event describes one step in a request's life.
type Event struct {
	Name     string
	Endpoint string
	Channel  string
	Seq      uint64
	Fields   map[string]any
}

// EventPublisher receives lifecycle events. Implementations should be lightweight
// and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
