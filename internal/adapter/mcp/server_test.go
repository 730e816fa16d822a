package mcp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	pmmcp "github.com/Strob0t/PMForge/internal/adapter/mcp"
	"github.com/Strob0t/PMForge/internal/domain"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/service"
)

// --- Mocks ---

type mockDocuments struct {
	prd     *document.PRD
	spec    *document.Spec
	sources []update.Source
}

func (m *mockDocuments) GetPRD(context.Context, string) (*document.PRD, error) {
	if m.prd == nil {
		return nil, domain.ErrNotFound
	}
	return m.prd, nil
}

func (m *mockDocuments) UpsertPRD(ctx context.Context, projectID string, req document.UpdatePRDRequest) (*document.PRD, error) {
	m.sources = append(m.sources, service.SourceFrom(ctx))
	m.prd = &document.PRD{ID: "prd-1", ProjectID: projectID, Content: *req.Content}
	if req.Title != nil {
		m.prd.Title = *req.Title
	}
	return m.prd, nil
}

func (m *mockDocuments) GetSpec(context.Context, string) (*document.Spec, error) {
	if m.spec == nil {
		return nil, domain.ErrNotFound
	}
	return m.spec, nil
}

func (m *mockDocuments) UpsertSpec(ctx context.Context, projectID string, req document.UpdateSpecRequest) (*document.Spec, error) {
	m.sources = append(m.sources, service.SourceFrom(ctx))
	m.spec = &document.Spec{ID: "spec-1", ProjectID: projectID, Content: *req.Content}
	if req.TechnicalDetails != nil {
		m.spec.TechnicalDetails = *req.TechnicalDetails
	}
	return m.spec, nil
}

type mockRoadmap struct {
	tasks   []roadmap.Task
	sources []update.Source
}

func (m *mockRoadmap) List(context.Context, string) ([]roadmap.Task, error) {
	return m.tasks, nil
}

func (m *mockRoadmap) BulkCreate(ctx context.Context, projectID string, req roadmap.BulkCreateRequest) ([]roadmap.Task, error) {
	m.sources = append(m.sources, service.SourceFrom(ctx))
	if err := roadmap.NormalizeBulkCreate(&req); err != nil {
		return nil, err
	}
	for _, r := range req.Tasks {
		m.tasks = append(m.tasks, roadmap.Task{ProjectID: projectID, Title: r.Title, Quarter: r.Quarter, Dependencies: r.Dependencies})
	}
	return m.tasks, nil
}

func newServer(docs *mockDocuments, rm *mockRoadmap) *pmmcp.Server {
	return pmmcp.NewServer(pmmcp.ServerConfig{Name: "test", Version: "0.1.0"},
		pmmcp.ServerDeps{Documents: docs, Roadmap: rm})
}

func callTool(t *testing.T, s *pmmcp.Server, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	tool, ok := s.MCPServer().ListTools()[name]
	if !ok {
		t.Fatalf("tool %q not registered", name)
	}
	result, err := tool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func resultText(t *testing.T, r *mcplib.CallToolResult) string {
	t.Helper()
	text, ok := r.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	return text.Text
}

// --- Tests ---

func TestToolRegistration(t *testing.T) {
	s := newServer(&mockDocuments{}, &mockRoadmap{})
	tools := s.MCPServer().ListTools()

	expected := []string{
		"get_project_prd", "update_project_prd",
		"get_project_spec", "update_project_spec",
		"get_project_roadmap", "create_roadmap_tasks",
	}
	if len(tools) != len(expected) {
		t.Fatalf("expected %d tools, got %d", len(expected), len(tools))
	}
	for _, name := range expected {
		if _, ok := tools[name]; !ok {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestUpdatePRDUsesAgentSource(t *testing.T) {
	docs := &mockDocuments{}
	s := newServer(docs, &mockRoadmap{})

	r := callTool(t, s, "update_project_prd", map[string]any{"project_id": "p1", "content": "# PRD"})
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(t, r))
	}
	var prd document.PRD
	if err := json.Unmarshal([]byte(resultText(t, r)), &prd); err != nil {
		t.Fatal(err)
	}
	if prd.Content != "# PRD" {
		t.Errorf("content = %q", prd.Content)
	}
	if len(docs.sources) != 1 || docs.sources[0] != update.SourceAgent {
		t.Errorf("sources = %v, want [ai-agent]", docs.sources)
	}

	r = callTool(t, s, "get_project_prd", map[string]any{"project_id": "p1"})
	if r.IsError || !strings.Contains(resultText(t, r), "# PRD") {
		t.Errorf("get after update = %s", resultText(t, r))
	}
}

func TestUpdateRequiresContent(t *testing.T) {
	s := newServer(&mockDocuments{}, &mockRoadmap{})
	r := callTool(t, s, "update_project_spec", map[string]any{"project_id": "p1"})
	if !r.IsError {
		t.Error("expected tool error for missing content")
	}
}

func TestGetMissingDocumentIsNotAnError(t *testing.T) {
	s := newServer(&mockDocuments{}, &mockRoadmap{})
	for _, name := range []string{"get_project_prd", "get_project_spec"} {
		r := callTool(t, s, name, map[string]any{"project_id": "p1"})
		if r.IsError {
			t.Errorf("%s: missing document should be reported as text, got error", name)
		}
	}
}

func TestCreateRoadmapTasks(t *testing.T) {
	rm := &mockRoadmap{}
	s := newServer(&mockDocuments{}, rm)

	r := callTool(t, s, "create_roadmap_tasks", map[string]any{
		"project_id": "p1",
		"tasks": []any{
			map[string]any{"title": "Auth", "quarter": "Q1 2025", "dependencies": `["SSO"]`},
			map[string]any{"title": "Billing", "quarter": "Q2 2025"},
		},
	})
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(t, r))
	}
	if len(rm.tasks) != 2 || len(rm.tasks[0].Dependencies) != 1 || rm.tasks[0].Dependencies[0] != "SSO" {
		t.Errorf("tasks = %+v", rm.tasks)
	}
	if rm.sources[0] != update.SourceAgent {
		t.Errorf("source = %q", rm.sources[0])
	}

	r = callTool(t, s, "create_roadmap_tasks", map[string]any{
		"project_id": "p1",
		"tasks":      []any{map[string]any{"title": "no quarter"}},
	})
	if !r.IsError {
		t.Error("expected validation error for task without quarter")
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := pmmcp.AuthMiddleware("secret", ok)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong", "Authorization", "Bearer nope", http.StatusForbidden},
		{"bearer", "Authorization", "Bearer secret", http.StatusOK},
		{"bare key", "Authorization", "secret", http.StatusOK},
		{"api key header", "X-API-Key", "secret", http.StatusOK},
		{"wrong api key header", "X-API-Key", "nope", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", http.NoBody)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("401 without WWW-Authenticate challenge")
			}
		})
	}

	if pmmcp.AuthMiddleware("", ok) == nil {
		t.Error("disabled auth must return the handler")
	}
}
