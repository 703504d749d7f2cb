package llmlab

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request or exercise failed validation.
	ErrValidation = errors.New("validation error")

	// ErrConnection indicates a stream could not be opened.
	ErrConnection = errors.New("connection failed")

	// ErrTransport indicates a stream broke after it was opened.
	ErrTransport = errors.New("stream interrupted")

	// ErrCancelled indicates the user cancelled or superseded an exchange.
	// It is not a failure and is never published as one.
	ErrCancelled = errors.New("cancelled")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")

	// ErrAlreadyStarted indicates Start was called twice on one session.
	ErrAlreadyStarted = errors.New("session already started")
)
