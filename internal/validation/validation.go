package validation

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/adithyabsk/portfoliohut/internal/apperrors"
)

// ErrEmptySlice is returned when a list argument must not be empty.
var ErrEmptySlice = errors.New("slice cannot be empty")

// ValidateUUID reports apperrors.ErrInvalidUUID unless id parses as a UUID.
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidUUID, id)
	}
	return nil
}

// ValidateUUIDs checks every id and names the position of the first bad one.
func ValidateUUIDs(ids []string) error {
	if len(ids) == 0 {
		return ErrEmptySlice
	}
	for i, id := range ids {
		if err := ValidateUUID(id); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}
