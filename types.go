package relay

// Handler is a callback registered for a specific event type.
// It receives the type-erased event payload.
type Handler func(event any) error

// WildcardHandler is a callback registered for every event type.
// It receives the concrete event type along with the payload, and always
// runs after the type-specific handlers of the same emission.
type WildcardHandler func(eventType string, event any) error

// FilterFunc is a predicate gating delivery to a single subscription.
// Return true to deliver the event, false to skip it.
type FilterFunc func(event any) bool

// PanicHandler is called when a handler panics and the emitter was built
// with WithRecovery. The stack is captured at the point of the panic.
type PanicHandler func(eventType string, event any, recovered any, stack []byte)

// Stats contains counters for a single emitter handle.
// Handles sharing a channel keep independent counters.
type Stats struct {
	// Emitted is the total number of Emit calls.
	Emitted uint64

	// Delivered is the number of successful handler invocations,
	// replays included.
	Delivered uint64

	// Replayed is the number of cached-value deliveries made by On.
	Replayed uint64

	// HandlerErrors is the number of handlers that returned an error.
	HandlerErrors uint64

	// PanicsRecovered is the number of handler panics swallowed under
	// WithRecovery.
	PanicsRecovered uint64

	// Subscriptions is the current number of active subscriptions on the
	// handle's channel.
	Subscriptions int
}
