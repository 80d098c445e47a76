package core

import "errors"

var (
	ErrNotConfigured = errors.New("language model not configured")
	ErrInvalidArgs   = errors.New("invalid arguments")
)
