package main

import "errors"

var (
	errNoSources         = errors.New("at least one SET=PATH source is required")
	errInvalidPair       = errors.New("expected KEY=VALUE")
	errUnsupportedSource = errors.New("unsupported source type (want .xml, .yaml or .yml)")
)
