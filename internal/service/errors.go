package service

import (
	"errors"
	"fmt"

	"github.com/echowall/backend/internal/repositories"
)

// Error taxonomy surfaced to handlers. Store-internal details are wrapped
// into ErrUnavailable so they never leak to clients.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
)

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repositories.ErrInvalidID):
		return ErrInvalidArgument
	case errors.Is(err, repositories.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}
