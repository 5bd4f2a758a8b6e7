package cache

import "errors"

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilStorage     = errors.New("cache: storage is nil")
	ErrNilLoader      = errors.New("cache: load function is nil")
	ErrInvalidKey     = errors.New("cache: key is invalid")
	ErrKeyTooLong     = errors.New("cache: key exceeds max length")
	ErrLoadPanicked   = errors.New("cache: load function panicked")
	ErrInvalidPolicy  = errors.New("cache: policy is invalid")
	ErrDependencyInit = errors.New("cache: dependency could not be watched")
)
