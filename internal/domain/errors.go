package domain

import "errors"

var (
	ErrUnknownDeck      = errors.New("unknown deck")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrInvalidSettings  = errors.New("invalid settings")
)
