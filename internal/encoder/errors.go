package encoder

import "errors"

var (
	ErrShortRecord        = errors.New("record shorter than header")
	ErrBadDescriptorBlock = errors.New("malformed descriptor block")
)
