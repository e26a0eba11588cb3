package registry

import "errors"

// ErrNotFound is returned when a lookup names a partition or process key the
// registry does not hold.
var ErrNotFound = errors.New("registry: record not found")
