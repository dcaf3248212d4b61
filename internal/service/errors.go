package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/nurpe/tontine/internal/repository"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrStorageDisabled  = errors.New("photo storage is not configured")
)

// translate maps persistence errors onto service errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConflict
	default:
		return err
	}
}
