package relay

import (
	"runtime/debug"
	"sync/atomic"
)

// Wildcard is the reserved event type for handlers that receive every
// emission. Wildcard handlers always run after the type-specific handlers of
// the same emission. Emitting Wildcard itself is not a fire-all: it only
// reaches handlers registered under Wildcard.
const Wildcard = "*"

// Emitter is a handle onto a channel's shared registry. It registers
// handlers, removes them, and dispatches events synchronously in the
// caller's goroutine.
//
// Two emitters constructed for the same channel are interchangeable views of
// the same state; counters in Stats are the only per-handle data.
type Emitter struct {
	reg     *Registry
	channel string

	recoverPanics bool
	panicHandler  PanicHandler

	emitted         atomic.Uint64
	delivered       atomic.Uint64
	replayed        atomic.Uint64
	handlerErrors   atomic.Uint64
	panicsRecovered atomic.Uint64
}

// New creates an emitter bound to a channel registry. The registry is
// created lazily on first use of the channel and lives for the process
// lifetime; there is no teardown.
func New(opts ...Option) *Emitter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Emitter{
		reg:           channelRegistry(cfg.channel),
		channel:       cfg.channel,
		recoverPanics: cfg.recover,
		panicHandler:  cfg.panicHandler,
	}
}

// Channel returns the name of the channel the emitter is bound to.
func (e *Emitter) Channel() string {
	return e.channel
}

// All returns the channel's shared registry for introspection and bulk
// manipulation. Mutations made through it are visible to every emitter on
// the channel.
func (e *Emitter) All() *Registry {
	return e.reg
}

// On registers a handler for an event type, appended after any handlers
// already registered for that type. Dispatch order is registration order.
// Registering the same function twice creates two independent entries.
//
// If the type has been emitted before, the cached last value is delivered to
// the handler immediately and synchronously, so a late subscriber observes
// the most recent event as if it had been listening at emit time.
// WithoutReplay suppresses this. An error from the replayed invocation is
// returned, wrapped in *HandlerError; the handler stays registered either
// way.
//
// The wildcard type is rejected with ErrWildcardType: a wildcard handler
// needs the concrete event type and is registered with OnAll.
func (e *Emitter) On(eventType string, h Handler, opts ...SubscribeOption) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	if eventType == "" {
		return nil, ErrEmptyType
	}
	if eventType == Wildcard {
		return nil, ErrWildcardType
	}

	cfg := defaultSubConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sub := newSubscription(eventType, h, nil, cfg)
	e.reg.add(sub)

	if cfg.replay {
		if v, ok := e.reg.Last(eventType); ok && sub.shouldDeliver(v) {
			e.replayed.Add(1)
			err := e.invoke(sub, eventType, v)
			if cfg.once {
				e.reg.remove(sub.id)
			}
			if err != nil {
				return sub, &HandlerError{
					SubscriptionID: sub.id,
					EventType:      eventType,
					Replay:         true,
					Err:            err,
				}
			}
		}
	}

	return sub, nil
}

// OnAll registers a wildcard handler, invoked for every emission on the
// channel with the concrete event type and the payload. Wildcard handlers
// never replay cached values.
func (e *Emitter) OnAll(h WildcardHandler, opts ...SubscribeOption) (Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}

	cfg := defaultSubConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sub := newSubscription(Wildcard, nil, h, cfg)
	e.reg.add(sub)
	return sub, nil
}

// Off removes exactly the registry entry the subscription names. Removing a
// subscription that was never registered on this channel, or was already
// removed, is a no-op returning ErrSubscriptionNotFound; the subscription's
// state and every other entry are left untouched. The last-value cache is
// unaffected.
func (e *Emitter) Off(sub Subscription) error {
	if sub == nil {
		return ErrInvalidSubscription
	}

	if !e.reg.remove(sub.ID()) {
		return ErrSubscriptionNotFound
	}
	return nil
}

// Emit dispatches an event: first every handler registered for the type, in
// registration order, then every wildcard handler, in registration order.
// Both lists are snapshotted before the first invocation, so re-entrant
// On/Off calls from inside a handler affect only future emissions.
//
// A handler error aborts the remaining invocations of the pass and is
// returned wrapped in *HandlerError. A handler panic propagates unless the
// emitter was built with WithRecovery. When the pass completes, the
// last-value cache entry for the type is overwritten — even when no handler
// is registered — so every type ever emitted has a cached value.
func (e *Emitter) Emit(eventType string, event any) error {
	if eventType == "" {
		return ErrEmptyType
	}

	e.emitted.Add(1)

	typed := e.reg.snapshotActive(eventType)
	var wild []*subscription
	if eventType != Wildcard {
		wild = e.reg.snapshotActive(Wildcard)
	}

	if err := e.dispatch(typed, eventType, event); err != nil {
		return err
	}
	if err := e.dispatch(wild, eventType, event); err != nil {
		return err
	}

	e.reg.setLast(eventType, event)
	return nil
}

// dispatch runs one snapshotted handler list in order.
func (e *Emitter) dispatch(subs []*subscription, eventType string, event any) error {
	for _, sub := range subs {
		if !sub.shouldDeliver(event) {
			continue
		}

		err := e.invoke(sub, eventType, event)

		if sub.config.once {
			e.reg.remove(sub.id)
		}
		if err != nil {
			return &HandlerError{
				SubscriptionID: sub.id,
				EventType:      eventType,
				Err:            err,
			}
		}
	}
	return nil
}

// invoke runs a single handler, applying the emitter's panic policy.
// A recovered panic counts as a completed (non-delivering) invocation.
func (e *Emitter) invoke(sub *subscription, eventType string, event any) (err error) {
	if e.recoverPanics {
		defer func() {
			if r := recover(); r != nil {
				e.panicsRecovered.Add(1)
				err = nil

				if e.panicHandler == nil {
					return
				}
				stack := debug.Stack()
				// The report hook must not take down the pass either.
				func() {
					defer func() { _ = recover() }()
					e.panicHandler(eventType, event, r, stack)
				}()
			}
		}()
	}

	if sub.wild != nil {
		err = sub.wild(eventType, event)
	} else {
		err = sub.fn(event)
	}

	if err != nil {
		e.handlerErrors.Add(1)
		return err
	}
	e.delivered.Add(1)
	return nil
}

// Stats returns the handle's counters plus the channel's active
// subscription count.
func (e *Emitter) Stats() Stats {
	return Stats{
		Emitted:         e.emitted.Load(),
		Delivered:       e.delivered.Load(),
		Replayed:        e.replayed.Load(),
		HandlerErrors:   e.handlerErrors.Load(),
		PanicsRecovered: e.panicsRecovered.Load(),
		Subscriptions:   e.reg.CountActive(),
	}
}
