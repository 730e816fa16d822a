package document

import (
	"fmt"

	"github.com/Strob0t/PMForge/internal/domain"
)

const maxTitleLen = 500

// ValidateStatus checks if a status value is valid.
func ValidateStatus(s Status) error {
	switch s {
	case StatusDraft, StatusReview, StatusApproved:
		return nil
	default:
		return fmt.Errorf("%w: invalid status %q", domain.ErrValidation, s)
	}
}

// NormalizeCreatePRD fills defaults and validates a create request.
func NormalizeCreatePRD(req *CreatePRDRequest) error {
	if req.Title == "" {
		req.Title = DefaultPRDTitle
	}
	if req.Status == "" {
		req.Status = StatusDraft
	}
	if len(req.Title) > maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", domain.ErrValidation, maxTitleLen)
	}
	return ValidateStatus(req.Status)
}

// NormalizeCreateSpec fills defaults and validates a create request.
func NormalizeCreateSpec(req *CreateSpecRequest) error {
	if req.Title == "" {
		req.Title = DefaultSpecTitle
	}
	if req.Status == "" {
		req.Status = StatusDraft
	}
	if len(req.Title) > maxTitleLen {
		return fmt.Errorf("%w: title exceeds %d characters", domain.ErrValidation, maxTitleLen)
	}
	return ValidateStatus(req.Status)
}

// ValidateUpdatePRD validates the non-nil fields of an update request.
func ValidateUpdatePRD(req *UpdatePRDRequest) error {
	return validateUpdate(req.Title, req.Status)
}

// ValidateUpdateSpec validates the non-nil fields of an update request.
func ValidateUpdateSpec(req *UpdateSpecRequest) error {
	return validateUpdate(req.Title, req.Status)
}

func validateUpdate(title *string, status *Status) error {
	if title != nil {
		if *title == "" {
			return fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
		}
		if len(*title) > maxTitleLen {
			return fmt.Errorf("%w: title exceeds %d characters", domain.ErrValidation, maxTitleLen)
		}
	}
	if status != nil {
		return ValidateStatus(*status)
	}
	return nil
}
