package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("project not found")
	ErrValidation   = errors.New("invalid content item")
	ErrStoreFailure = errors.New("content store failure")
	ErrUnauthorized = errors.New("not allowed to edit this project")
	ErrInvalidID    = fmt.Errorf("%w: project id must be url-safe", ErrValidation)
	ErrDuplicateKey = fmt.Errorf("%w: duplicate content key", ErrValidation)
	ErrAlreadyExist = errors.New("project already exists")
)
