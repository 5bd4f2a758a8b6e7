package urlpath

import "errors"

// Sentinel errors for URL handling.
var (
	ErrEmptyURL   = errors.New("urlpath: url is empty")
	ErrInvalidURL = errors.New("urlpath: url is invalid")
)
