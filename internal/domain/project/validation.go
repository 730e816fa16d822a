package project

import (
	"fmt"
	"unicode"

	"github.com/Strob0t/PMForge/internal/domain"
)

const (
	maxNameLen        = 255
	maxDescriptionLen = 2000
)

// ValidateCreateRequest validates the fields of a project creation request.
func ValidateCreateRequest(req *CreateRequest) error {
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if err := validateName(req.Name); err != nil {
		return err
	}
	return validateDescription(req.Description)
}

// ValidateUpdateRequest validates the non-nil fields of an update request.
func ValidateUpdateRequest(req *UpdateRequest) error {
	if req.Name != nil {
		if *req.Name == "" {
			return fmt.Errorf("%w: name must not be empty", domain.ErrValidation)
		}
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.Description != nil {
		return validateDescription(*req.Description)
	}
	return nil
}

func validateName(name string) error {
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: name exceeds %d characters", domain.ErrValidation, maxNameLen)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: name contains control characters", domain.ErrValidation)
		}
	}
	return nil
}

func validateDescription(desc string) error {
	if len(desc) > maxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", domain.ErrValidation, maxDescriptionLen)
	}
	return nil
}
