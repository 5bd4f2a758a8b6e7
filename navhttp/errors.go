package navhttp

import "errors"

var (
	// ErrNilLoader indicates Config.Loader is nil.
	ErrNilLoader = errors.New("navhttp: loader is nil")

	// ErrNoCurrentNode indicates no accessible node matches the requested path.
	ErrNoCurrentNode = errors.New("navhttp: no node for path")
)
