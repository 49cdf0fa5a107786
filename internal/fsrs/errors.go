package fsrs

import "errors"

var (
	ErrInvalidRating = errors.New("fsrs: invalid rating")
	ErrInvalidState  = errors.New("fsrs: invalid state")
	ErrInvalidParams = errors.New("fsrs: invalid parameters")
)
