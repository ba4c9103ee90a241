package store

import "errors"

// ErrNotFound is returned by Load when key has no stored value.
var ErrNotFound = errors.New("store: key not found")
