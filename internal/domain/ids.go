package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateID checks that id is a well-formed UUID.
func ValidateID(field, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s is not a valid identifier", ErrValidation, field)
	}
	return nil
}
