// Package jsonfeed bridges raw JSON messages into a relay emitter.
//
// A Feeder extracts the event type and payload from incoming JSON documents
// and emits them synchronously, so wire-format producers (websockets, log
// tails, message queues) can drive handlers without hand-written decoding:
//
//	f := jsonfeed.New(emitter)
//	err := f.Feed([]byte(`{"type":"user.created","data":{"id":7}}`))
//
// Snapshot goes the other way: it renders a channel's last-value cache as a
// single JSON document, one key per event type.
package jsonfeed
