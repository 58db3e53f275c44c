// Package watch bridges filesystem notifications into a relay emitter.
//
// A Bridge owns an fsnotify watcher and emits one event per file change,
// typed by operation (TypeCreated, TypeModified, ...), with an Event payload
// carrying the path, operation, and time. Watcher-level failures are emitted
// under TypeError. Delivery happens by calling Emit synchronously from the
// bridge goroutine; handler errors are dropped, the bridge is
// fire-and-forget.
package watch

import (
	"errors"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relaykit/relay"
)

// Event types emitted by a Bridge.
const (
	TypeCreated  = "watch.created"
	TypeModified = "watch.modified"
	TypeRemoved  = "watch.removed"
	TypeRenamed  = "watch.renamed"
	TypeChmod    = "watch.chmod"

	// TypeError carries watcher-level errors; the payload is the error.
	TypeError = "watch.error"
)

// Sentinel errors for bridge lifecycle misuse.
var (
	ErrAlreadyStarted = errors.New("bridge already started")
	ErrNotStarted     = errors.New("bridge not started")
)

// Op is the file operation that triggered an event.
type Op int

const (
	// OpCreate indicates a new file was created.
	OpCreate Op = iota

	// OpWrite indicates the file was modified.
	OpWrite

	// OpRemove indicates the file was deleted.
	OpRemove

	// OpRename indicates the file was renamed.
	OpRename

	// OpChmod indicates the file's attributes changed.
	OpChmod
)

// String returns the operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	case OpChmod:
		return "chmod"
	default:
		return "unknown"
	}
}

// EventType returns the relay event type the operation is emitted under.
func (op Op) EventType() string {
	switch op {
	case OpCreate:
		return TypeCreated
	case OpWrite:
		return TypeModified
	case OpRemove:
		return TypeRemoved
	case OpRename:
		return TypeRenamed
	case OpChmod:
		return TypeChmod
	default:
		return TypeError
	}
}

// Event is the payload emitted for a file change.
type Event struct {
	// Path is the path fsnotify reported for the change.
	Path string

	// Op is the operation that triggered the event.
	Op Op

	// Time is when the bridge observed the event.
	Time time.Time
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithDebounce collapses rapid successive writes to the same path: within
// the window, only the first write is emitted. Other operations are never
// debounced.
func WithDebounce(d time.Duration) Option {
	return func(b *Bridge) {
		if d >= 0 {
			b.debounce = d
		}
	}
}

// Bridge forwards filesystem notifications to an emitter.
type Bridge struct {
	emitter  *relay.Emitter
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu        sync.Mutex
	started   bool
	stopped   bool
	lastWrite map[string]time.Time

	wg sync.WaitGroup
}

// New creates a bridge emitting into e. The bridge does not watch anything
// until paths are added and Start is called.
func New(e *relay.Emitter, opts ...Option) (*Bridge, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		emitter:   e,
		fsw:       fsw,
		lastWrite: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Add starts watching a file or directory.
func (b *Bridge) Add(path string) error {
	return b.fsw.Add(path)
}

// Remove stops watching a path.
func (b *Bridge) Remove(path string) error {
	return b.fsw.Remove(path)
}

// Start launches the forwarding goroutine.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return ErrAlreadyStarted
	}
	b.started = true

	b.wg.Add(1)
	go b.loop()
	return nil
}

// Stop closes the watcher and waits for the forwarding goroutine to drain.
func (b *Bridge) Stop() error {
	b.mu.Lock()
	if !b.started {
		b.mu.Unlock()
		return ErrNotStarted
	}
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	b.stopped = true
	b.mu.Unlock()

	err := b.fsw.Close()
	b.wg.Wait()
	return err
}

func (b *Bridge) loop() {
	defer b.wg.Done()

	for {
		select {
		case ev, ok := <-b.fsw.Events:
			if !ok {
				return
			}
			b.forward(ev)
		case err, ok := <-b.fsw.Errors:
			if !ok {
				return
			}
			_ = b.emitter.Emit(TypeError, err)
		}
	}
}

func (b *Bridge) forward(ev fsnotify.Event) {
	now := time.Now()

	var op Op
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = OpCreate
	case ev.Op.Has(fsnotify.Write):
		op = OpWrite
	case ev.Op.Has(fsnotify.Remove):
		op = OpRemove
	case ev.Op.Has(fsnotify.Rename):
		op = OpRename
	case ev.Op.Has(fsnotify.Chmod):
		op = OpChmod
	default:
		return
	}

	if op == OpWrite && b.debounce > 0 {
		b.mu.Lock()
		last, seen := b.lastWrite[ev.Name]
		if seen && now.Sub(last) < b.debounce {
			b.mu.Unlock()
			return
		}
		b.lastWrite[ev.Name] = now
		b.mu.Unlock()
	}

	_ = b.emitter.Emit(op.EventType(), Event{
		Path: ev.Name,
		Op:   op,
		Time: now,
	})
}
