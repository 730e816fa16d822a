// Package update defines the project update envelope distributed on the
// client event bus and over the server push channel.
package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
)

// Type names which part of a project an event describes.
type Type string

const (
	TypeProject Type = "project"
	TypePRD     Type = "prd"
	TypeSpec    Type = "spec"
	TypeAll     Type = "all"
	TypeRoadmap Type = "roadmap"
)

// Source names who caused the change.
type Source string

const (
	SourceAgent  Source = "ai-agent"
	SourceManual Source = "manual"
	SourceAPI    Source = "api"
)

// HeaderSource is the request header carrying the mutation source.
const HeaderSource = "X-Update-Source"

// ParseSource maps a header value to a Source. Empty input yields
// SourceAPI; unknown values are rejected.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return SourceAPI, nil
	case SourceAgent:
		return SourceAgent, nil
	case SourceManual:
		return SourceManual, nil
	case SourceAPI:
		return SourceAPI, nil
	default:
		return "", fmt.Errorf("%w: unknown update source %q", domain.ErrValidation, s)
	}
}

// RoadmapPayload carries the full task list of a project after a roadmap
// change. An empty Tasks slice means the roadmap was cleared.
type RoadmapPayload struct {
	Tasks []roadmap.Task `json:"tasks"`
}

// Event is the update envelope. Payload fields are optional: a nil field
// means "not changed by this event", never "cleared".
type Event struct {
	ProjectID string           `json:"project_id"`
	Type      Type             `json:"update_type"`
	Source    Source           `json:"source"`
	Timestamp time.Time        `json:"timestamp"`
	Project   *project.Project `json:"project,omitempty"`
	PRD       *document.PRD    `json:"prd,omitempty"`
	Spec      *document.Spec   `json:"spec,omitempty"`
	Roadmap   *RoadmapPayload  `json:"roadmap,omitempty"`
}

// Validate checks the envelope header. Payloads are not inspected.
func (e *Event) Validate() error {
	if e.ProjectID == "" {
		return fmt.Errorf("%w: project_id is required", domain.ErrValidation)
	}
	switch e.Type {
	case TypeProject, TypePRD, TypeSpec, TypeAll, TypeRoadmap:
	default:
		return fmt.Errorf("%w: unknown update type %q", domain.ErrValidation, e.Type)
	}
	switch e.Source {
	case SourceAgent, SourceManual, SourceAPI:
	default:
		return fmt.Errorf("%w: unknown update source %q", domain.ErrValidation, e.Source)
	}
	return nil
}

// Changed lists the document kinds carried by the event, PRD first.
func (e *Event) Changed() []document.Kind {
	var kinds []document.Kind
	if e.PRD != nil {
		kinds = append(kinds, document.KindPRD)
	}
	if e.Spec != nil {
		kinds = append(kinds, document.KindSpec)
	}
	return kinds
}
