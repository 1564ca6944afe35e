package domain

import "errors"

var (
	ErrBusinessNotFound = errors.New("business not found")
	ErrBusinessLocked   = errors.New("business locked")
)
