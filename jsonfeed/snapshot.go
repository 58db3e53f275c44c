package jsonfeed

import (
	"sort"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/relaykit/relay"
)

// Snapshot renders the last-value cache of a registry as one JSON document,
// keyed by event type. With no explicit types it covers every cached type,
// in sorted order. Types with no cached value are skipped. Values must be
// JSON-encodable.
func Snapshot(reg *relay.Registry, types ...string) ([]byte, error) {
	if len(types) == 0 {
		types = reg.CachedTypes()
		sort.Strings(types)
	}

	out := []byte("{}")
	for _, t := range types {
		v, ok := reg.Last(t)
		if !ok {
			continue
		}
		var err error
		out, err = sjson.SetBytes(out, escapePath(t), v)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// escapePath escapes sjson path syntax so dotted event types become single
// top-level keys instead of nested objects.
func escapePath(eventType string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`.`, `\.`,
		`*`, `\*`,
		`?`, `\?`,
	)
	return r.Replace(eventType)
}
