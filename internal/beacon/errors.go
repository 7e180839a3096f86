package beacon

import "errors"

var (
	ErrInvalidAddress = errors.New("invalid aircraft address")
)
