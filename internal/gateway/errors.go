package gateway

import "errors"

var (
	ErrDuplicatePlugin = errors.New("plugin already registered")
	ErrPluginPanic     = errors.New("plugin panicked")
)
