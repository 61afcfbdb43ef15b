package store

import "errors"

// ErrNotFound is returned when a lookup matches no row, including
// token updates against a credential that no longer exists.
var ErrNotFound = errors.New("store: record not found")
