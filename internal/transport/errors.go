package transport

import "errors"

var (
	ErrNotReady       = errors.New("transport not ready")
	ErrAlreadyStarted = errors.New("transport already started")
	ErrNoMode         = errors.New("no delivery mode selected")
	ErrUnknownMode    = errors.New("unknown delivery mode")
	ErrBadGroup       = errors.New("not an IPv4 multicast group")
)
