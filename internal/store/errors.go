package store

import "errors"

var (
	ErrLoad    = errors.New("failed to load finding store")
	ErrPersist = errors.New("failed to persist finding store")
)
