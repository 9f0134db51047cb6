package domain

import "errors"

var (
	ErrUnauthorized        = errors.New("not allowed to revalidate this path")
	ErrInvalidRequest      = errors.New("invalid revalidation request")
	ErrRegenerationFailure = errors.New("render boundary regeneration failed")
)
