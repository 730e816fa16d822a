// Package document defines the singleton project documents: the PRD and the
// technical Spec. Each project has at most one of each.
package document

import "time"

// Status is the review state of a document.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusReview   Status = "review"
	StatusApproved Status = "approved"
)

// Kind names a singleton document type.
type Kind string

const (
	KindPRD  Kind = "prd"
	KindSpec Kind = "spec"
)

// Label returns the display name used in notifications.
func (k Kind) Label() string {
	switch k {
	case KindPRD:
		return "PRD"
	case KindSpec:
		return "Spec"
	default:
		return string(k)
	}
}

// PRD is a product requirements document. A NULL content column is read as
// the empty string.
type PRD struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Spec is a technical specification. It extends the PRD shape with
// free-form technical details.
type Spec struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	TechnicalDetails string    `json:"technical_details"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreatePRDRequest is the body of POST /projects/{id}/prd.
type CreatePRDRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  Status `json:"status"`
}

// UpdatePRDRequest is the body of PUT /projects/{id}/prd. Nil fields are kept.
type UpdatePRDRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Status  *Status `json:"status,omitempty"`
}

// CreateSpecRequest is the body of POST /projects/{id}/spec.
type CreateSpecRequest struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	TechnicalDetails string `json:"technical_details"`
	Status           Status `json:"status"`
}

// UpdateSpecRequest is the body of PUT /projects/{id}/spec. Nil fields are kept.
type UpdateSpecRequest struct {
	Title            *string `json:"title,omitempty"`
	Content          *string `json:"content,omitempty"`
	TechnicalDetails *string `json:"technical_details,omitempty"`
	Status           *Status `json:"status,omitempty"`
}

// Default titles used when a document is created without one.
const (
	DefaultPRDTitle  = "Product Requirements Document"
	DefaultSpecTitle = "Technical Specification"
)

// Apply merges the non-nil fields of req into p.
func (req *UpdatePRDRequest) Apply(p *PRD) {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
}

// Apply merges the non-nil fields of req into s.
func (req *UpdateSpecRequest) Apply(s *Spec) {
	if req.Title != nil {
		s.Title = *req.Title
	}
	if req.Content != nil {
		s.Content = *req.Content
	}
	if req.TechnicalDetails != nil {
		s.TechnicalDetails = *req.TechnicalDetails
	}
	if req.Status != nil {
		s.Status = *req.Status
	}
}
