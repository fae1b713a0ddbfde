package story

import (
	"errors"

	"dialogue_ai/dialogue"
)

var (
	ErrInvalidConfiguration = dialogue.ErrInvalidConfiguration
	ErrRotationExhausted    = errors.New("rotation exhausted: need at least two characters")
	ErrWrongState           = errors.New("not allowed in current state")
	ErrUnknownOption        = errors.New("option not offered this turn")
	ErrUnknownLocation      = errors.New("location not offered")
)
