package bazaar

import "errors"

// Error kinds surfaced by the core. Callers classify with errors.Is; the
// transport layer maps them to response codes. Empty series and all-nil
// aggregates are successes, not errors.
var (
	// ErrInvalidInput marks missing or malformed query parameters. It is
	// always detected before any store access.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFeedUnavailable marks a failure to reach or parse the external feed.
	ErrFeedUnavailable = errors.New("feed unavailable")

	// ErrStoreUnavailable marks a failed read or write at the storage boundary.
	ErrStoreUnavailable = errors.New("store unavailable")
)
