package scene

import "errors"

var (
	ErrUnknownObject   = errors.New("scene: unknown object")
	ErrDuplicateObject = errors.New("scene: object already attached")
	ErrNoCamera        = errors.New("scene: no camera defined")
	ErrInvalidCamera   = errors.New("scene: invalid camera")
)
