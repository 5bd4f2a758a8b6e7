package builder

import "errors"

// Sentinel errors for builder operations.
var (
	ErrNilProvider       = errors.New("builder: node provider is nil")
	ErrInvalidDefinition = errors.New("builder: invalid node definition")
	ErrParse             = errors.New("builder: cannot parse node source")
	ErrVisitor           = errors.New("builder: visitor failed")
)
