package library

import "errors"

var (
	ErrSongNotFound       = errors.New("song not found")
	ErrLocaleNotAvailable = errors.New("song not available in locale")
	ErrInvalidIndex       = errors.New("invalid song index")
)
