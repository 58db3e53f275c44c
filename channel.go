package relay

import "sync"

// DefaultChannel is the channel emitters bind to when no channel is named.
// Every emitter constructed without WithChannel shares this registry.
const DefaultChannel = "default"

var (
	channelsMu sync.Mutex
	channels   = make(map[string]*Registry)
)

// channelRegistry returns the process-wide registry for a channel, creating
// it on first use. Registries live for the lifetime of the process.
func channelRegistry(id string) *Registry {
	channelsMu.Lock()
	defer channelsMu.Unlock()

	reg, ok := channels[id]
	if !ok {
		reg = newRegistry()
		channels[id] = reg
	}
	return reg
}

// Channels returns the names of every channel whose registry has been
// created.
func Channels() []string {
	channelsMu.Lock()
	defer channelsMu.Unlock()

	if len(channels) == 0 {
		return nil
	}
	names := make([]string, 0, len(channels))
	for id := range channels {
		names = append(names, id)
	}
	return names
}
