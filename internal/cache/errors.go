package cache

import "errors"

var (
	// ErrNotFound is returned when a key is not cached.
	ErrNotFound = errors.New("cache: key not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("cache: cache is closed")
)
