package fat

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFat means the buffer has no fat magic or a malformed architecture table.
	ErrNotFat = errors.New("not a fat binary")
	// ErrDuplicatedArch matches any *DuplicatedArchError.
	ErrDuplicatedArch = errors.New("duplicated architecture")
	// ErrInvalidImage matches any *InvalidImageError.
	ErrInvalidImage = errors.New("invalid image")
)

type DuplicatedArchError struct {
	// Name is the arch name, or "unknown"
	Name string
}

func (e *DuplicatedArchError) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicatedArch, e.Name)
}

func (e *DuplicatedArchError) Is(target error) bool {
	return target == ErrDuplicatedArch
}

type InvalidImageError struct {
	Message string
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidImage, e.Message)
}

func (e *InvalidImageError) Is(target error) bool {
	return target == ErrInvalidImage
}
