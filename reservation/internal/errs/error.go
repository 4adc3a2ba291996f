package errs

import (
	"errors"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalid     = errors.New("invalid")
	ErrUnavailable = errors.New("directory unavailable")
	ErrRejected    = errors.New("directory rejected request") // 4xx other than 404
)
