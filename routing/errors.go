package routing

import "errors"

// Sentinel errors for route registration.
var (
	ErrEmptyTemplate  = errors.New("routing: template is empty")
	ErrInvalidSegment = errors.New("routing: template segment is invalid")
	ErrDuplicateRoute = errors.New("routing: route name already registered")
)
