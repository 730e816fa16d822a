// Package agent defines the request and reply shapes of the external agent
// service. The agent is consumed as a black box: it converses and may write
// project documents as a side effect.
package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Strob0t/PMForge/internal/domain"
)

// Type selects which agent handles a conversation.
type Type string

const (
	TypePRD     Type = "prd"
	TypeSpec    Type = "spec"
	TypeRoadmap Type = "roadmap"
)

// RoadmapResponseType labels roadmap agent replies that carry no type.
const RoadmapResponseType = "roadmap_response"

// DefaultTemplate is the agent's default PRD template.
const DefaultTemplate = "lean"

// DefaultSpecTemplate replaces PRD template names on spec generation.
const DefaultSpecTemplate = "api"

// prdTemplates are template names only the PRD agent knows.
var prdTemplates = map[string]bool{
	"lean": true, "agile": true, "startup": true,
	"amazon": true, "technical": true, "enterprise": true,
}

// SpecTemplate maps a requested template to one the spec agent accepts.
func SpecTemplate(t string) string {
	if t == "" || prdTemplates[t] {
		return DefaultSpecTemplate
	}
	return t
}

// HistoryEntry is one prior turn sent as conversational context.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ProjectContext is the document context handed to the agent.
type ProjectContext struct {
	ProjectName     string `json:"project_name,omitempty"`
	Description     string `json:"description,omitempty"`
	ExistingPRD     string `json:"existing_prd,omitempty"`
	ExistingSpec    string `json:"existing_spec,omitempty"`
	ExistingRoadmap string `json:"existing_roadmap,omitempty"`
}

// ChatRequest is the body of every conversational and generation call.
type ChatRequest struct {
	Message        string          `json:"message"`
	TemplateType   string          `json:"template_type"`
	AgentType      Type            `json:"agent_type"`
	ProjectID      string          `json:"project_id,omitempty"`
	ProjectContext *ProjectContext `json:"project_context,omitempty"`
	ChatHistory    []HistoryEntry  `json:"chat_history,omitempty"`
}

// ChatResponse is the agent's structured reply.
type ChatResponse struct {
	Content       string          `json:"content"`
	Type          string          `json:"type"`
	RequiresInput bool            `json:"requires_input,omitempty"`
	MissingInfo   []string        `json:"missing_info,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// TemplateInfo describes one document template.
type TemplateInfo struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	TemplateType     string   `json:"template_type"`
	Sections         []string `json:"sections"`
	RequiredSections []string `json:"required_sections"`
}

// ValidateRequest is the body of POST /agents/validate.
type ValidateRequest struct {
	Input        string `json:"input"`
	TemplateType string `json:"template_type,omitempty"`
}

// ValidationResult reports how complete a user's description is.
type ValidationResult struct {
	IsSufficient      bool            `json:"is_sufficient"`
	CompletenessScore float64         `json:"completeness_score"`
	MissingInfo       []string        `json:"missing_info"`
	ExtractedInfo     json.RawMessage `json:"extracted_info,omitempty"`
	IsUnderspecified  bool            `json:"is_underspecified"`
}

// Normalize fills defaults and validates a conversational request.
func (r *ChatRequest) Normalize() error {
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if r.TemplateType == "" {
		r.TemplateType = DefaultTemplate
	}
	switch r.AgentType {
	case "":
		r.AgentType = TypePRD
	case TypePRD, TypeSpec, TypeRoadmap:
	default:
		return fmt.Errorf("%w: invalid agent type %q", domain.ErrValidation, r.AgentType)
	}
	return nil
}

// ValidateRoadmap checks the extra preconditions of roadmap generation.
func (r *ChatRequest) ValidateRoadmap() error {
	if r.ProjectID == "" {
		return fmt.Errorf("%w: project id is required for roadmap generation", domain.ErrValidation)
	}
	if r.ProjectContext == nil || strings.TrimSpace(r.ProjectContext.ExistingPRD) == "" {
		return fmt.Errorf("%w: PRD content is required for roadmap generation", domain.ErrValidation)
	}
	return nil
}

// ConversationEntry is one turn of the agent's server-side history.
type ConversationEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}
