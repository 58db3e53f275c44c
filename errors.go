package relay

import "errors"

// Sentinel errors for the emitter.
var (
	// ErrNilHandler is returned when a nil handler is registered.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrEmptyType is returned when an empty event type is used.
	ErrEmptyType = errors.New("event type cannot be empty")

	// ErrWildcardType is returned by On for the wildcard type; wildcard
	// handlers take the event type as well and are registered with OnAll.
	ErrWildcardType = errors.New("wildcard subscriptions must use OnAll")

	// ErrInvalidSubscription is returned when a nil subscription is passed
	// to Off.
	ErrInvalidSubscription = errors.New("invalid subscription")

	// ErrSubscriptionNotFound is returned by Off when the subscription is
	// not present in the registry. Off never removes a different entry.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// HandlerError wraps an error returned by a handler with the context of the
// delivery that produced it.
type HandlerError struct {
	// SubscriptionID is the ID of the subscription whose handler failed.
	SubscriptionID string

	// EventType is the type of the event being delivered.
	EventType string

	// Replay is true when the failure happened during a cached-value
	// delivery made by On rather than during Emit.
	Replay bool

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	if e.Replay {
		return "replay handler error for subscription " + e.SubscriptionID + " on type " + e.EventType + ": " + e.Err.Error()
	}
	return "handler error for subscription " + e.SubscriptionID + " on type " + e.EventType + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}
