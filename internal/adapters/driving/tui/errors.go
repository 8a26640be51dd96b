package tui

import "errors"

// ErrMissingClusterResolver is returned when the cluster resolver is not provided.
var ErrMissingClusterResolver = errors.New("tui: cluster resolver is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
