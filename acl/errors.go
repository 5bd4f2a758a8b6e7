package acl

import "errors"

// ErrNilModule indicates a nil Module was passed to New.
var ErrNilModule = errors.New("acl: module is nil")
