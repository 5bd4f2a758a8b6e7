package resilience

import "errors"

var (
	// ErrCircuitOpen is returned while a Breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded wraps the last error once Retry gives up.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")
)
