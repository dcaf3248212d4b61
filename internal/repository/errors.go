package repository

import "errors"

// ErrVersionConflict means the member changed since the caller read it.
var ErrVersionConflict = errors.New("member was modified concurrently")
