package store

import "errors"

// The Store Gateway's failure taxonomy (spec.md section 4.1): transient
// failures the runtime should retry, and fatal ones a step should surface
// immediately.
var (
	ErrStoreUnavailable    = errors.New("store: unavailable")
	ErrConstraintViolation = errors.New("store: constraint violation")
	ErrNotFound            = errors.New("store: not found")
)
