package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/service"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.getPRDTool(),
		s.updatePRDTool(),
		s.getSpecTool(),
		s.updateSpecTool(),
		s.getRoadmapTool(),
		s.createRoadmapTasksTool(),
	)
}

func projectIDParam() mcplib.ToolOption {
	return mcplib.WithString("project_id",
		mcplib.Required(),
		mcplib.Description("The project ID"),
	)
}

func (s *Server) getPRDTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("get_project_prd",
			mcplib.WithDescription("Get the product requirements document of a project"),
			projectIDParam(),
		),
		Handler: s.handleGetPRD,
	}
}

func (s *Server) updatePRDTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("update_project_prd",
			mcplib.WithDescription("Create or replace the PRD content of a project"),
			projectIDParam(),
			mcplib.WithString("content", mcplib.Required(), mcplib.Description("Full PRD in Markdown")),
			mcplib.WithString("title", mcplib.Description("Optional document title")),
		),
		Handler: s.handleUpdatePRD,
	}
}

func (s *Server) getSpecTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("get_project_spec",
			mcplib.WithDescription("Get the technical specification of a project"),
			projectIDParam(),
		),
		Handler: s.handleGetSpec,
	}
}

func (s *Server) updateSpecTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("update_project_spec",
			mcplib.WithDescription("Create or replace the technical specification of a project"),
			projectIDParam(),
			mcplib.WithString("content", mcplib.Required(), mcplib.Description("Full specification in Markdown")),
			mcplib.WithString("technical_details", mcplib.Description("Optional free-form technical details")),
			mcplib.WithString("title", mcplib.Description("Optional document title")),
		),
		Handler: s.handleUpdateSpec,
	}
}

func (s *Server) getRoadmapTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("get_project_roadmap",
			mcplib.WithDescription("List the roadmap tasks of a project"),
			projectIDParam(),
		),
		Handler: s.handleGetRoadmap,
	}
}

func (s *Server) createRoadmapTasksTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool: mcplib.NewTool("create_roadmap_tasks",
			mcplib.WithDescription("Add roadmap tasks to a project. All tasks are stored or none are."),
			projectIDParam(),
			mcplib.WithArray("tasks",
				mcplib.Required(),
				mcplib.Description("Tasks with title, quarter (e.g. \"Q1 2025\") and optional description, priority (P0-P3), status, estimated_effort, dependencies"),
				mcplib.Items(map[string]any{"type": "object"}),
			),
		),
		Handler: s.handleCreateRoadmapTasks,
	}
}

// agentContext marks ctx so downstream notifications carry the agent source.
func agentContext(ctx context.Context) context.Context {
	return service.WithSource(ctx, update.SourceAgent)
}

func stringArg(req mcplib.CallToolRequest, name string) string { //nolint:gocritic // hugeParam: mcp-go request type
	v, _ := req.GetArguments()[name].(string)
	return v
}

func optionalString(req mcplib.CallToolRequest, name string) *string { //nolint:gocritic // hugeParam: mcp-go request type
	v, ok := req.GetArguments()[name].(string)
	if !ok {
		return nil
	}
	return &v
}

func (s *Server) handleGetPRD(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	projectID := stringArg(req, "project_id")
	prd, err := s.deps.Documents.GetPRD(ctx, projectID)
	if errors.Is(err, domain.ErrNotFound) {
		return mcplib.NewToolResultText("This project has no PRD yet."), nil
	}
	if err != nil {
		return toolError(fmt.Sprintf("failed to get PRD of project %s", projectID), err), nil
	}
	return toolResultJSON(prd)
}

func (s *Server) handleUpdatePRD(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	projectID := stringArg(req, "project_id")
	content := stringArg(req, "content")
	if content == "" {
		return mcplib.NewToolResultError("content is required"), nil
	}
	prd, err := s.deps.Documents.UpsertPRD(agentContext(ctx), projectID, document.UpdatePRDRequest{
		Title:   optionalString(req, "title"),
		Content: &content,
	})
	if err != nil {
		return toolError("failed to update PRD", err), nil
	}
	return toolResultJSON(prd)
}

func (s *Server) handleGetSpec(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	projectID := stringArg(req, "project_id")
	spec, err := s.deps.Documents.GetSpec(ctx, projectID)
	if errors.Is(err, domain.ErrNotFound) {
		return mcplib.NewToolResultText("This project has no technical specification yet."), nil
	}
	if err != nil {
		return toolError(fmt.Sprintf("failed to get Spec of project %s", projectID), err), nil
	}
	return toolResultJSON(spec)
}

func (s *Server) handleUpdateSpec(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	projectID := stringArg(req, "project_id")
	content := stringArg(req, "content")
	if content == "" {
		return mcplib.NewToolResultError("content is required"), nil
	}
	spec, err := s.deps.Documents.UpsertSpec(agentContext(ctx), projectID, document.UpdateSpecRequest{
		Title:            optionalString(req, "title"),
		Content:          &content,
		TechnicalDetails: optionalString(req, "technical_details"),
	})
	if err != nil {
		return toolError("failed to update Spec", err), nil
	}
	return toolResultJSON(spec)
}

func (s *Server) handleGetRoadmap(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	projectID := stringArg(req, "project_id")
	tasks, err := s.deps.Roadmap.List(ctx, projectID)
	if err != nil {
		return toolError(fmt.Sprintf("failed to list roadmap of project %s", projectID), err), nil
	}
	if tasks == nil {
		tasks = []roadmap.Task{}
	}
	return toolResultJSON(tasks)
}

func (s *Server) handleCreateRoadmapTasks(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	projectID := stringArg(req, "project_id")

	// Arguments arrive as generic JSON; round-trip them into the typed request
	// so dependencies accept every shape the REST API accepts.
	raw, err := json.Marshal(map[string]any{"tasks": req.GetArguments()["tasks"]})
	if err != nil {
		return toolError("invalid tasks argument", err), nil
	}
	var bulk roadmap.BulkCreateRequest
	if err := json.Unmarshal(raw, &bulk); err != nil {
		return toolError("invalid tasks argument", err), nil
	}

	tasks, err := s.deps.Roadmap.BulkCreate(agentContext(ctx), projectID, bulk)
	if err != nil {
		return toolError("failed to create roadmap tasks", err), nil
	}
	return toolResultJSON(tasks)
}

func toolError(msg string, err error) *mcplib.CallToolResult {
	return mcplib.NewToolResultErrorFromErr(msg, err)
}

func toolResultJSON(v any) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal result", err), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}
