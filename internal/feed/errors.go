package feed

import "errors"

var (
	ErrMissingAddress = errors.New("beacon address missing")
	ErrBadPosition    = errors.New("position out of range")
	ErrInputGone      = errors.New("followed input removed or renamed")
)
