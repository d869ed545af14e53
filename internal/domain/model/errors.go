package model

import "errors"

// Sentinel kinds for batch validation errors.
var (
	ErrMisaligned = errors.New("misaligned batch columns")
)
