package loader

import "errors"

var (
	// ErrNoBuilderSets indicates a strategy was created without builder sets.
	ErrNoBuilderSets = errors.New("loader: no builder sets configured")

	// ErrUnknownBuilderSet indicates a cache key mapped to an unregistered set.
	ErrUnknownBuilderSet = errors.New("loader: unknown builder set")

	// ErrDuplicateBuilderSet indicates two sets share a name.
	ErrDuplicateBuilderSet = errors.New("loader: duplicate builder set")

	// ErrInvalidBuilderSet indicates a set failed validation.
	ErrInvalidBuilderSet = errors.New("loader: invalid builder set")

	// ErrNilStrategy indicates Config.Strategy is nil.
	ErrNilStrategy = errors.New("loader: builder set strategy is nil")
)
