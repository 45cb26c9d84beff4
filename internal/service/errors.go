package service

import "errors"

// Scan failures fall into three buckets. Validation never reaches the
// backend; backend and timeout failures abort the scan without producing a
// verdict. A guessed verdict on failure is never acceptable, so callers must
// surface these instead of defaulting to "safe" or "phishing".
var (
	// ErrInvalidURL means the input could not be normalized into an
	// absolute URL. Recoverable by re-prompting the user.
	ErrInvalidURL = errors.New("invalid url")

	// ErrBackend means the scoring backend was unreachable or returned
	// malformed data.
	ErrBackend = errors.New("scoring backend failure")

	// ErrScanTimeout means no response arrived within the configured
	// interval. Shown to users like ErrBackend but logged separately.
	ErrScanTimeout = errors.New("scan timed out")
)
