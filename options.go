package relay

// Option configures an Emitter.
type Option func(*config)

// config contains configuration for an emitter handle.
type config struct {
	// channel names the shared registry the handle binds to.
	channel string

	// recover enables catch-and-continue for handler panics.
	recover bool

	// panicHandler is called for each recovered panic. May be nil.
	panicHandler PanicHandler
}

func defaultConfig() config {
	return config{channel: DefaultChannel}
}

// WithChannel binds the emitter to a named channel. Emitters constructed
// with the same channel name share one registry: handlers registered through
// one handle are invoked by emissions through another. An empty name means
// DefaultChannel.
func WithChannel(id string) Option {
	return func(c *config) {
		if id != "" {
			c.channel = id
		}
	}
}

// WithRecovery makes Emit recover handler panics and continue with the
// remaining handlers of the pass instead of letting the panic propagate.
// Each recovered panic is reported to h when h is non-nil. Handler errors
// are unaffected and still abort the pass.
func WithRecovery(h PanicHandler) Option {
	return func(c *config) {
		c.recover = true
		c.panicHandler = h
	}
}
