package mock

import "github.com/fwojciec/llmlab"

// Interface compliance check.
var _ llmlab.Stream = (*Stream)(nil)

// Stream is a test double for llmlab.Stream.
// Set the function fields for the methods you need. NextFn panics when nil
// to catch missing setup. CloseFn and StateFn are nil-safe (no-op and zero
// value) because owners always close streams and rarely need custom behavior.
type Stream struct {
	NextFn  func() (llmlab.Event, error)
	StateFn func() llmlab.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (llmlab.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() llmlab.StreamState {
	if s.StateFn == nil {
		return llmlab.StreamStateNew
	}
	return s.StateFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
