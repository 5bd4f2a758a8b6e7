package visibility

import "errors"

// Sentinel errors for visibility providers.
var (
	ErrCompile = errors.New("visibility: cannot compile expression")
	ErrEval    = errors.New("visibility: expression evaluation failed")
)
