package orchestrator

// Event names published by the orchestrator.
const (
	EventAskAccepted     = "ask_accepted"
	EventLoadDone        = "load_done"
	EventModelChanged    = "model_changed"
	EventAskDone         = "ask_done"
	EventModelsRefreshed = "models_refreshed"
	EventModelAdded      = "model_added"
)

// Event represents an orchestrator lifecycle event: a name, the request and
// model it concerns, and optional fields.
type Event struct {
	Name      string
	RequestID string
	Model     string
	Fields    map[string]any
}

// EventPublisher receives events from the orchestrator. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
