package relay

// Common filter combinators for WithFilter.

// FilterAnd combines filters with AND logic. All must pass.
func FilterAnd(filters ...FilterFunc) FilterFunc {
	return func(event any) bool {
		for _, f := range filters {
			if !f(event) {
				return false
			}
		}
		return true
	}
}

// FilterOr combines filters with OR logic. At least one must pass.
func FilterOr(filters ...FilterFunc) FilterFunc {
	return func(event any) bool {
		for _, f := range filters {
			if f(event) {
				return true
			}
		}
		return false
	}
}

// FilterNot negates a filter.
func FilterNot(filter FilterFunc) FilterFunc {
	return func(event any) bool {
		return !filter(event)
	}
}

// FilterPayload builds a filter from a typed predicate. Events whose payload
// is not a T are filtered out.
func FilterPayload[T any](predicate func(payload T) bool) FilterFunc {
	return func(event any) bool {
		payload, ok := event.(T)
		return ok && predicate(payload)
	}
}
