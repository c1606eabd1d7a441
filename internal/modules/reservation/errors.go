package reservation

import (
	"fmt"
	"strings"
	"time"

	"venuebook/internal/modules/errclass"
)

var (
	ErrInvalidInterval  = fmt.Errorf("%w: end must be after start", errclass.ErrValidation)
	ErrStartInPast      = fmt.Errorf("%w: start is in the past", errclass.ErrValidation)
	ErrEndInPast        = fmt.Errorf("%w: end is in the past", errclass.ErrValidation)
	ErrResourceInactive = fmt.Errorf("%w: resource is inactive", errclass.ErrValidation)
	ErrMissingResource  = fmt.Errorf("%w: resource id is required", errclass.ErrValidation)
	ErrMissingCustomer  = fmt.Errorf("%w: customer name is required", errclass.ErrValidation)
)

// ConflictError names the slot that could not be taken and what holds it.
type ConflictError struct {
	ResourceID  int64
	Start       time.Time
	End         time.Time
	Conflicting []int64
}

func (e *ConflictError) Error() string {
	ids := make([]string, 0, len(e.Conflicting))
	for _, id := range e.Conflicting {
		ids = append(ids, fmt.Sprint(id))
	}
	return fmt.Sprintf("%s: resource %d %s-%s overlaps reservation %s",
		errclass.ErrConflict.Error(),
		e.ResourceID,
		e.Start.UTC().Format(time.RFC3339),
		e.End.UTC().Format(time.RFC3339),
		strings.Join(ids, ","),
	)
}

func (e *ConflictError) Unwrap() error { return errclass.ErrConflict }

func invalidTransition(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", errclass.ErrInvalidTransition, from, to)
}
