package filter

import "errors"

// Sentinel kinds for filter errors.
var (
	ErrUnknownVariant = errors.New("unknown filter variant")
)
