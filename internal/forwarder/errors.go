package forwarder

import "errors"

var ErrAlreadyStarted = errors.New("forwarder already started")
