package messagequeue

import (
	"encoding/json"
	"fmt"
)

// Validate checks whether data is valid JSON conforming to the schema
// associated with the given subject. Unknown subjects pass validation.
func Validate(subject string, data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON on subject %s", subject)
	}

	id := ProjectIDFromSubject(subject)
	if id == "" {
		return nil
	}

	var p ProjectUpdatedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", subject, err)
	}
	if p.ProjectID != id {
		return fmt.Errorf("schema validation failed for %s: payload project %q does not match subject", subject, p.ProjectID)
	}
	return nil
}
