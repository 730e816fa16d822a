package agentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Strob0t/PMForge/internal/adapter/otel"
	"github.com/Strob0t/PMForge/internal/domain/agent"
)

// Chat sends one conversational turn to the PRD or Spec agent.
func (c *Client) Chat(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	return c.converse(ctx, "chat", "/agents/chat", req)
}

// GeneratePRD asks the PRD agent for a complete document in one shot.
func (c *Client) GeneratePRD(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	req.AgentType = agent.TypePRD
	return c.converse(ctx, "generate_prd", "/agents/generate-prd", req)
}

// GenerateSpec asks the Spec agent for a complete document in one shot.
// PRD template names are replaced by the default spec template.
func (c *Client) GenerateSpec(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	req.AgentType = agent.TypeSpec
	req.TemplateType = agent.SpecTemplate(req.TemplateType)
	return c.converse(ctx, "generate_spec", "/agents/generate-spec", req)
}

// GenerateRoadmap derives roadmap tasks from the project's PRD. The agent
// writes the tasks itself; the reply only summarizes them.
func (c *Client) GenerateRoadmap(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	if err := req.ValidateRoadmap(); err != nil {
		return nil, err
	}
	if req.Message == "" {
		req.Message = "Generate a roadmap from the PRD"
	}
	return c.converse(ctx, "generate_roadmap", "/agents/generate-roadmap", req)
}

// RoadmapChat sends one conversational turn to the roadmap agent. Replies
// without a type are roadmap responses.
func (c *Client) RoadmapChat(ctx context.Context, req agent.ChatRequest) (*agent.ChatResponse, error) {
	req.AgentType = agent.TypeRoadmap
	resp, err := c.converse(ctx, "roadmap_chat", "/agents/roadmap/chat", req)
	if err != nil {
		return nil, err
	}
	if resp.Type == "" {
		resp.Type = agent.RoadmapResponseType
	}
	return resp, nil
}

func (c *Client) converse(ctx context.Context, op, path string, req agent.ChatRequest) (resp *agent.ChatResponse, err error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	ctx, span := otel.StartAgentSpan(ctx, op, string(req.AgentType))
	defer func() {
		c.countCall(ctx, op, err)
		otel.EndSpan(span, err)
	}()

	var out agent.ChatResponse
	if err := c.doRequest(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, fmt.Errorf("agent %s: %w", op, err)
	}
	return &out, nil
}

// Templates lists the template names the agent offers. Listings are cached.
func (c *Client) Templates(ctx context.Context, agentType agent.Type) ([]string, error) {
	var out struct {
		Templates []string `json:"templates"`
	}
	key := "templates:" + string(agentType)
	if err := c.cachedGet(ctx, key, "/agents/templates", agentQuery(agentType), &out); err != nil {
		return nil, fmt.Errorf("agent templates: %w", err)
	}
	if out.Templates == nil {
		out.Templates = []string{}
	}
	return out.Templates, nil
}

// Template returns the sections of one template.
func (c *Client) Template(ctx context.Context, agentType agent.Type, templateType string) (*agent.TemplateInfo, error) {
	var out agent.TemplateInfo
	key := "template:" + string(agentType) + ":" + templateType
	path := "/agents/templates/" + url.PathEscape(templateType)
	if err := c.cachedGet(ctx, key, path, agentQuery(agentType), &out); err != nil {
		return nil, fmt.Errorf("agent template %s: %w", templateType, err)
	}
	return &out, nil
}

// cachedGet serves key from the template cache, fetching on a miss. Errors
// are never cached.
func (c *Client) cachedGet(ctx context.Context, key, path string, query url.Values, out any) error {
	if c.templates != nil {
		if data, ok, err := c.templates.Get(ctx, key); err == nil && ok {
			if json.Unmarshal(data, out) == nil {
				return nil
			}
		}
	}
	if err := c.doRequest(ctx, http.MethodGet, path, query, nil, out); err != nil {
		return err
	}
	if c.templates != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = c.templates.Set(ctx, key, data, templateTTL)
		}
	}
	return nil
}

// Conversation returns the agent's server-side history. The roadmap agent
// keeps its own history under a separate route.
func (c *Client) Conversation(ctx context.Context, agentType agent.Type) ([]agent.ConversationEntry, error) {
	var out struct {
		Messages []agent.ConversationEntry `json:"messages"`
	}
	path, query := conversationRoute(agentType)
	if err := c.doRequest(ctx, http.MethodGet, path, query, nil, &out); err != nil {
		return nil, fmt.Errorf("agent conversation: %w", err)
	}
	if out.Messages == nil {
		out.Messages = []agent.ConversationEntry{}
	}
	return out.Messages, nil
}

// ClearConversation resets the agent's server-side history.
func (c *Client) ClearConversation(ctx context.Context, agentType agent.Type) error {
	path, query := conversationRoute(agentType)
	if err := c.doRequest(ctx, http.MethodPost, path+"/clear", query, nil, nil); err != nil {
		return fmt.Errorf("agent clear conversation: %w", err)
	}
	return nil
}

// Config returns the agent service's model settings. The service strips
// credentials before answering.
func (c *Client) Config(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.doRequest(ctx, http.MethodGet, "/agents/config", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("agent config: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Validate scores how complete a product description is.
func (c *Client) Validate(ctx context.Context, input, templateType string) (*agent.ValidationResult, error) {
	var out agent.ValidationResult
	req := agent.ValidateRequest{Input: input, TemplateType: templateType}
	if err := c.doRequest(ctx, http.MethodPost, "/agents/validate", nil, req, &out); err != nil {
		return nil, fmt.Errorf("agent validate: %w", err)
	}
	return &out, nil
}

// Health checks whether the agent service is reachable.
func (c *Client) Health(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, nil, nil); err != nil {
		return fmt.Errorf("agent health: %w", err)
	}
	return nil
}

func conversationRoute(t agent.Type) (string, url.Values) {
	if t == agent.TypeRoadmap {
		return "/agents/roadmap/conversation", nil
	}
	return "/agents/conversation", agentQuery(t)
}

func agentQuery(t agent.Type) url.Values {
	if t == "" {
		t = agent.TypePRD
	}
	return url.Values{"agent_type": {string(t)}}
}
