package health

import "errors"

// ErrCircuitOpen is returned while a backend's breaker rejects lookups.
var ErrCircuitOpen = errors.New("health: circuit breaker is open")
