package mock

import "github.com/mstolarz/council"

// EventStream is a test double for council.EventStream.
// Set NextFn for the events you need; it panics when nil to catch missing
// setup. CloseFn is nil-safe (no-op) because controller code commonly runs
// defer stream.Close() and close behavior rarely needs customizing.
type EventStream struct {
	NextFn  func() (council.Event, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *EventStream) Next() (council.Event, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *EventStream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
