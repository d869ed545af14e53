package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrBadCatalog         = errors.New("malformed catalog")
)
