package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every catalog component. Adapters wrap them so callers can
// branch with errors.Is regardless of the storage backend.
var (
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("conflict")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrStorage              = errors.New("storage failure")
)

// Validationf wraps ErrValidation with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// PageOutOfRangeError signals that the requested page is past the end of the listing.
// Callers retry at LastPage.
type PageOutOfRangeError struct {
	Requested int
	LastPage  int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d does not exist, last page is %d", e.Requested, e.LastPage)
}
