// Package relay provides a small synchronous publish/subscribe emitter with
// per-type last-value replay and named shared channels.
//
// Callers register handlers for string event types, emit events by type, and
// the emitter invokes matching handlers in registration order, in the
// caller's goroutine. A wildcard key receives every emission after the
// type-specific handlers have run. For every type ever emitted the channel
// keeps the most recent value; a late subscriber receives it immediately on
// registration, as if it had been listening at emit time.
//
// # Channels
//
// Registries are process-wide and keyed by channel name. Emitters built with
// the same channel name share one registry, so a handler registered through
// one handle fires for events emitted through another:
//
//	a := relay.New(relay.WithChannel("metrics"))
//	b := relay.New(relay.WithChannel("metrics"))
//
//	sub, _ := a.On("sample", func(event any) error {
//	    fmt.Println("got", event)
//	    return nil
//	})
//	b.Emit("sample", 42) // delivered to the handler registered via a
//	a.Off(sub)
//
// Emitters built without WithChannel share the DefaultChannel registry.
// Channel registries are created lazily and live for the process lifetime.
//
// # Replay
//
// Emitting a type caches the value; subscribing afterwards delivers it
// immediately unless WithoutReplay is given:
//
//	e.Emit("config.loaded", cfg)
//	e.On("config.loaded", apply)                       // apply(cfg) runs now
//	e.On("config.loaded", audit, relay.WithoutReplay()) // future emissions only
//
// The cache holds one value per type; each emission overwrites it.
//
// # Wildcards
//
// OnAll registers a handler for every emission on the channel. Wildcard
// handlers receive the concrete type along with the payload and always run
// strictly after the type-specific handlers of the same emission. Wildcard
// handlers never replay.
//
// # Dispatch semantics
//
// Emit snapshots the handler lists before the first invocation: handlers
// that register or remove subscriptions mid-dispatch change future emissions
// only. A handler error aborts the remaining handlers of the pass and is
// returned from Emit wrapped in *HandlerError. A handler panic propagates to
// the caller of Emit unless the emitter was built with WithRecovery, which
// recovers, reports, and continues with the remaining handlers.
//
// # Thread safety
//
// Registration and emission may be called from multiple goroutines; the
// registry is internally synchronized. Dispatch itself is always synchronous
// in the emitting goroutine, and individual handlers must manage their own
// thread safety.
package relay
