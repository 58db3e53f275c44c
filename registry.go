package relay

import "sync"

// Registry holds the shared state of one channel: the ordered handler lists
// per event type and the last-value cache. The cache is a separate map, not
// a derived key in the handler namespace, so event types can never collide
// with cache entries.
//
// All emitters constructed for the same channel share one Registry; a
// mutation made through one handle is visible through every other.
// It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	subs map[string][]*subscription
	byID map[string]*subscription
	last map[string]any
}

func newRegistry() *Registry {
	return &Registry{
		subs: make(map[string][]*subscription),
		byID: make(map[string]*subscription),
		last: make(map[string]any),
	}
}

// add appends a subscription to its type's list, preserving registration
// order. Duplicate handlers produce duplicate entries.
func (r *Registry) add(sub *subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.subs[sub.eventType] = append(r.subs[sub.eventType], sub)
	r.byID[sub.id] = sub
}

// remove removes the single entry the ID names and cancels it. Returns false
// when the ID is not registered here; no entry or subscription state is
// touched in that case.
func (r *Registry) remove(subID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, exists := r.byID[subID]
	if !exists {
		return false
	}
	sub.Cancel()

	subs := r.subs[sub.eventType]
	for i, s := range subs {
		if s.id == subID {
			r.subs[sub.eventType] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subs[sub.eventType]) == 0 {
		delete(r.subs, sub.eventType)
	}
	delete(r.byID, subID)

	return true
}

// snapshotActive returns a copy of the active subscriptions for a type, in
// registration order. The copy fixes the invocation set of an emission:
// re-entrant On/Off calls only affect future emissions.
func (r *Registry) snapshotActive(eventType string) []*subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.subs[eventType]
	if len(subs) == 0 {
		return nil
	}

	result := make([]*subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.IsActive() {
			result = append(result, sub)
		}
	}
	return result
}

// setLast overwrites the cached last value for a type.
func (r *Registry) setLast(eventType string, event any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last[eventType] = event
}

// Last returns the most recently emitted value for a type, and whether the
// type has been emitted at all.
func (r *Registry) Last(eventType string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.last[eventType]
	return v, ok
}

// ForgetLast drops the cached last value for a type. Future subscribers get
// no replay until the type is emitted again.
func (r *Registry) ForgetLast(eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.last, eventType)
}

// Types returns the event types that currently have registered handlers.
// Wildcard registrations appear as Wildcard.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.subs) == 0 {
		return nil
	}
	types := make([]string, 0, len(r.subs))
	for t := range r.subs {
		types = append(types, t)
	}
	return types
}

// CachedTypes returns the event types that have a cached last value.
func (r *Registry) CachedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.last) == 0 {
		return nil
	}
	types := make([]string, 0, len(r.last))
	for t := range r.last {
		types = append(types, t)
	}
	return types
}

// Count returns the total number of registered subscriptions, cancelled
// entries included.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byID)
}

// CountByType returns the number of subscriptions registered for a type.
func (r *Registry) CountByType(eventType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.subs[eventType])
}

// CountActive returns the number of active subscriptions.
func (r *Registry) CountActive() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, sub := range r.byID {
		if sub.IsActive() {
			count++
		}
	}
	return count
}

// Drop removes every subscription for a type. The last-value cache for the
// type is untouched.
func (r *Registry) Drop(eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subs[eventType] {
		sub.Cancel()
		delete(r.byID, sub.id)
	}
	delete(r.subs, eventType)
}

// Clear removes all subscriptions and all cached values.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.byID {
		sub.Cancel()
	}
	r.subs = make(map[string][]*subscription)
	r.byID = make(map[string]*subscription)
	r.last = make(map[string]any)
}

// Prune removes all cancelled subscriptions and returns how many were
// removed.
func (r *Registry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, sub := range r.byID {
		if sub.IsActive() {
			continue
		}
		subs := r.subs[sub.eventType]
		for i, s := range subs {
			if s.id == id {
				r.subs[sub.eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(r.subs[sub.eventType]) == 0 {
			delete(r.subs, sub.eventType)
		}
		delete(r.byID, id)
		removed++
	}
	return removed
}
