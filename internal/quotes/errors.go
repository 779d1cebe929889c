package quotes

import (
	"errors"
	"fmt"

	"github.com/puntourbano/eventdesk/internal/platform/httpx"
)

var (
	// ErrValidation marks empty or malformed input.
	ErrValidation = httpx.ErrValidation
	// ErrNotFound marks an unknown quote id.
	ErrNotFound = fmt.Errorf("quote %w", httpx.ErrNotFound)
	// ErrPersistence marks a read or write rejected by the quote store.
	ErrPersistence = fmt.Errorf("quote store %w", httpx.ErrUnavailable)
	// ErrStorage marks a failed attachment upload.
	ErrStorage = fmt.Errorf("attachment %w", httpx.ErrStorage)
	// ErrDuplicateID is returned by repositories when the generated id is taken.
	ErrDuplicateID = errors.New("duplicate quote id")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
