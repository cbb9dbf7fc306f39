package resolver

import (
	"fmt"

	"github.com/picklesmaker/pickles/internal/catalog"
)

// NotFoundError reports a selection id that does not resolve to a row.
type NotFoundError struct {
	Entity string
	ID     uint64
}

// Error implements error.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is lets errors.Is match catalog.ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == catalog.ErrNotFound
}
