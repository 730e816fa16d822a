package roadmap

import (
	"fmt"
	"strings"

	"github.com/Strob0t/PMForge/internal/domain"
)

// MaxBulkTasks caps a single bulk-create request.
const MaxBulkTasks = 200

// ValidatePriority checks if a priority value is valid.
func ValidatePriority(p Priority) error {
	switch p {
	case PriorityP0, PriorityP1, PriorityP2, PriorityP3:
		return nil
	default:
		return fmt.Errorf("%w: invalid priority %q", domain.ErrValidation, p)
	}
}

// ValidateStatus checks if a task status value is valid.
func ValidateStatus(s Status) error {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted:
		return nil
	default:
		return fmt.Errorf("%w: invalid status %q", domain.ErrValidation, s)
	}
}

// NormalizeCreateTask fills defaults and validates a create request.
// Quarter is required but kept as free text: tasks in quarters the board does
// not know are stored, just never placed on a board column.
func NormalizeCreateTask(req *CreateTaskRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Quarter = strings.TrimSpace(req.Quarter)
	if req.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if req.Quarter == "" {
		return fmt.Errorf("%w: quarter is required", domain.ErrValidation)
	}
	if req.Priority == "" {
		req.Priority = PriorityP2
	}
	if req.Status == "" {
		req.Status = StatusPlanned
	}
	if req.Dependencies == nil {
		req.Dependencies = Dependencies{}
	}
	if err := ValidatePriority(req.Priority); err != nil {
		return err
	}
	return ValidateStatus(req.Status)
}

// ValidateUpdateTask validates the non-nil fields of an update request.
func ValidateUpdateTask(req *UpdateTaskRequest) error {
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return fmt.Errorf("%w: title must not be empty", domain.ErrValidation)
	}
	if req.Quarter != nil && strings.TrimSpace(*req.Quarter) == "" {
		return fmt.Errorf("%w: quarter must not be empty", domain.ErrValidation)
	}
	if req.Priority != nil {
		if err := ValidatePriority(*req.Priority); err != nil {
			return err
		}
	}
	if req.Status != nil {
		return ValidateStatus(*req.Status)
	}
	return nil
}

// NormalizeBulkCreate validates every task in a bulk request. The error names
// the index of the first invalid task.
func NormalizeBulkCreate(req *BulkCreateRequest) error {
	if len(req.Tasks) == 0 {
		return fmt.Errorf("%w: tasks must not be empty", domain.ErrValidation)
	}
	if len(req.Tasks) > MaxBulkTasks {
		return fmt.Errorf("%w: at most %d tasks per request", domain.ErrValidation, MaxBulkTasks)
	}
	for i := range req.Tasks {
		if err := NormalizeCreateTask(&req.Tasks[i]); err != nil {
			return fmt.Errorf("tasks[%d]: %w", i, err)
		}
	}
	return nil
}
