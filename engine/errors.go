package engine

import "github.com/pkg/errors"

// The failure taxonomy. Every error surfaced to a caller is one of these,
// possibly carrying additional detail.
var (
	// ErrAuthenticationFailed deliberately does not say
	// whether the username exists.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrUnknownOperation is a routing miss:
	// the requested operation is not one of the four the dispatcher serves.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnknownSyncID reports a confirm or acknowledge
	// referencing an operation that was never opened.
	ErrUnknownSyncID = errors.New("unknown sync id")

	// ErrMalformedRequest reports an undecodable or incomplete request.
	ErrMalformedRequest = errors.New("malformed request")
)

// A StoreIOError reports a fault reading or writing the document store.
type StoreIOError struct {
	Err error
}

func (e *StoreIOError) Error() string {
	return "document store failure: " + e.Err.Error()
}

func (e *StoreIOError) Unwrap() error {
	return e.Err
}
