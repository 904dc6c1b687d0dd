package model

import "errors"

var (
	ErrValidation             = errors.New("validation error")
	ErrOverlap                = errors.New("window overlaps an existing window")
	ErrNotFound               = errors.New("not found")
	ErrPastWindow             = errors.New("window is not in the future")
	ErrConflict               = errors.New("window is reserved")
	ErrDuplicateClientBooking = errors.New("client already reserved this window")
	ErrAlreadyReserved        = errors.New("window is already reserved")
	ErrForbidden              = errors.New("forbidden")
	ErrStorage                = errors.New("storage error")
)

// IsExpected reports whether err is one of the typed per-request failures.
// Anything else is treated as a storage failure by callers.
func IsExpected(err error) bool {
	for _, kind := range []error{
		ErrValidation, ErrOverlap, ErrNotFound, ErrPastWindow, ErrConflict,
		ErrDuplicateClientBooking, ErrAlreadyReserved, ErrForbidden,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
