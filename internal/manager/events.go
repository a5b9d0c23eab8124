package manager

// Event names delivered to the front-end.
const (
	EventModelLoadProgress = "on_model_load_progress"
	EventInferenceToken    = "on_inference_token"
)

// Event is a typed notification for the UI. Payload is
// types.OnModelLoadProgressPayload or types.OnInferenceTokenPayload.
// RunID identifies the load or inference run that produced it.
type Event struct {
	Name    string
	RunID   string
	Payload any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish is called from inside the token loop
// and must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }
