package relay

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription receives events.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStateCancelled means the subscription has been
	// permanently cancelled.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Subscription identifies exactly one registry entry created by On or OnAll.
// Registering the same function twice yields two distinct subscriptions,
// each independently removable.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// EventType returns the type the subscription was registered for.
	// Wildcard subscriptions return Wildcard.
	EventType() string

	// State returns the current subscription state.
	State() SubscriptionState

	// IsActive returns true if the subscription can receive events.
	IsActive() bool

	// Cancel permanently stops delivery to this subscription. The registry
	// entry remains until Off or Registry.Prune removes it. Cancelling
	// during a dispatch pass does not affect that pass; the invocation set
	// is fixed when Emit snapshots the handler lists.
	Cancel()
}

// subConfig contains configuration for a subscription.
type subConfig struct {
	// replay controls whether On immediately delivers a cached last value.
	replay bool

	// once auto-cancels the subscription after its first delivery.
	once bool

	// filter optionally gates each delivery.
	filter FilterFunc
}

func defaultSubConfig() subConfig {
	return subConfig{replay: true}
}

// SubscribeOption configures a subscription created by On or OnAll.
type SubscribeOption func(*subConfig)

// WithoutReplay suppresses the immediate delivery of the cached last value
// when subscribing to a type that has already been emitted.
func WithoutReplay() SubscribeOption {
	return func(c *subConfig) {
		c.replay = false
	}
}

// WithOnce auto-cancels the subscription after its first delivery.
// A replayed cached value counts as the first delivery.
func WithOnce() SubscribeOption {
	return func(c *subConfig) {
		c.once = true
	}
}

// WithFilter gates every delivery, replay included, with a predicate.
func WithFilter(f FilterFunc) SubscribeOption {
	return func(c *subConfig) {
		c.filter = f
	}
}

// subscription is the internal implementation of Subscription.
type subscription struct {
	id        string
	eventType string
	fn        Handler
	wild      WildcardHandler
	config    subConfig
	state     atomic.Int32
}

// newSubscription creates a subscription. Exactly one of fn and wild is set:
// fn for type-specific handlers, wild for wildcard handlers.
func newSubscription(eventType string, fn Handler, wild WildcardHandler, config subConfig) *subscription {
	s := &subscription{
		id:        uuid.NewString(),
		eventType: eventType,
		fn:        fn,
		wild:      wild,
		config:    config,
	}
	s.state.Store(int32(SubscriptionStateActive))
	return s
}

// ID returns the subscription ID.
func (s *subscription) ID() string {
	return s.id
}

// EventType returns the registered event type.
func (s *subscription) EventType() string {
	return s.eventType
}

// State returns the current subscription state.
func (s *subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// IsActive returns true if the subscription is active.
func (s *subscription) IsActive() bool {
	return s.State() == SubscriptionStateActive
}

// Cancel permanently cancels the subscription.
func (s *subscription) Cancel() {
	s.state.Store(int32(SubscriptionStateCancelled))
}

// shouldDeliver returns true if the event passes the subscription's filter.
// State is deliberately not rechecked here: Emit fixes the invocation set at
// snapshot time.
func (s *subscription) shouldDeliver(event any) bool {
	return s.config.filter == nil || s.config.filter(event)
}
