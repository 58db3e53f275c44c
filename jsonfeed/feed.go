package jsonfeed

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/relaykit/relay"
)

// Sentinel errors for feeding.
var (
	// ErrMalformed is returned when the message is not valid JSON.
	ErrMalformed = errors.New("message is not valid JSON")

	// ErrNoType is returned when the type path yields no usable event type.
	ErrNoType = errors.New("message has no event type")
)

// Feeder emits events extracted from JSON messages.
type Feeder struct {
	emitter  *relay.Emitter
	typePath string
	dataPath string
}

// Option configures a Feeder.
type Option func(*Feeder)

// WithTypePath sets the gjson path used to extract the event type.
// Default "type".
func WithTypePath(path string) Option {
	return func(f *Feeder) {
		if path != "" {
			f.typePath = path
		}
	}
}

// WithDataPath sets the gjson path used to extract the payload.
// Default "data". When the path is absent from a message, the whole decoded
// message becomes the payload.
func WithDataPath(path string) Option {
	return func(f *Feeder) {
		if path != "" {
			f.dataPath = path
		}
	}
}

// New creates a Feeder emitting into e.
func New(e *relay.Emitter, opts ...Option) *Feeder {
	f := &Feeder{
		emitter:  e,
		typePath: "type",
		dataPath: "data",
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Feed extracts the event type and payload from a JSON message and emits
// them. The payload is the decoded value at the data path (maps, slices,
// strings, float64 numbers, bools, nil — standard JSON decoding), or the
// whole decoded message when the data path is absent. Dispatch errors from
// handlers propagate unchanged.
func (f *Feeder) Feed(msg []byte) error {
	if !gjson.ValidBytes(msg) {
		return ErrMalformed
	}

	t := gjson.GetBytes(msg, f.typePath)
	if !t.Exists() || t.Type != gjson.String || t.Str == "" {
		return ErrNoType
	}

	var payload any
	if data := gjson.GetBytes(msg, f.dataPath); data.Exists() {
		payload = data.Value()
	} else {
		payload = gjson.ParseBytes(msg).Value()
	}

	return f.emitter.Emit(t.Str, payload)
}
