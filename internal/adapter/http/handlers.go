package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Strob0t/PMForge/internal/domain/chat"
	"github.com/Strob0t/PMForge/internal/domain/document"
	"github.com/Strob0t/PMForge/internal/domain/project"
	"github.com/Strob0t/PMForge/internal/domain/roadmap"
	"github.com/Strob0t/PMForge/internal/service"
)

// DefaultMaxBodyBytes caps request bodies when Handlers.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 1 << 20 // 1 MB

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnChecker reports whether a connection-oriented dependency is up.
type ConnChecker interface {
	IsConnected() bool
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Projects  *service.ProjectService
	Documents *service.DocumentService
	Roadmap   *service.RoadmapService
	Chat      *service.ChatService

	DB    Pinger
	Queue ConnChecker

	MaxBodyBytes int64
}

func (h *Handlers) bodyLimit() int64 {
	if h.MaxBodyBytes > 0 {
		return h.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

// --- Projects ---

// ListProjects handles GET /api/v1/projects.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	handleList(h.Projects.List)(w, r)
}

// GetProject handles GET /api/v1/projects/{id}.
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	handleGet("id", h.Projects.Get, "project not found")(w, r)
}

// CreateProject handles POST /api/v1/projects.
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[project.CreateRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	p, err := h.Projects.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, "project not found")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// UpdateProject handles PUT /api/v1/projects/{id}.
func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	handleUpdate("id", h.bodyLimit(), h.Projects.Update, "project not found")(w, r)
}

// DeleteProject handles DELETE /api/v1/projects/{id}.
func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	handleDelete("id", h.Projects.Delete, "project not found")(w, r)
}

// --- PRD ---

// GetPRD handles GET /api/v1/projects/{id}/prd.
func (h *Handlers) GetPRD(w http.ResponseWriter, r *http.Request) {
	handleGet("id", h.Documents.GetPRD, "PRD not found")(w, r)
}

// CreatePRD handles POST /api/v1/projects/{id}/prd.
func (h *Handlers) CreatePRD(w http.ResponseWriter, r *http.Request) {
	handleCreate[document.CreatePRDRequest]("id", h.bodyLimit(), h.Documents.CreatePRD, "project not found")(w, r)
}

// UpdatePRD handles PUT /api/v1/projects/{id}/prd.
func (h *Handlers) UpdatePRD(w http.ResponseWriter, r *http.Request) {
	handleUpdate("id", h.bodyLimit(), h.Documents.UpdatePRD, "PRD not found")(w, r)
}

// --- Spec ---

// GetSpec handles GET /api/v1/projects/{id}/spec.
func (h *Handlers) GetSpec(w http.ResponseWriter, r *http.Request) {
	handleGet("id", h.Documents.GetSpec, "Spec not found")(w, r)
}

// CreateSpec handles POST /api/v1/projects/{id}/spec.
func (h *Handlers) CreateSpec(w http.ResponseWriter, r *http.Request) {
	handleCreate[document.CreateSpecRequest]("id", h.bodyLimit(), h.Documents.CreateSpec, "project not found")(w, r)
}

// UpdateSpec handles PUT /api/v1/projects/{id}/spec.
func (h *Handlers) UpdateSpec(w http.ResponseWriter, r *http.Request) {
	handleUpdate("id", h.bodyLimit(), h.Documents.UpdateSpec, "Spec not found")(w, r)
}

// --- Roadmap ---

// ListRoadmap handles GET /api/v1/projects/{id}/roadmap.
func (h *Handlers) ListRoadmap(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Roadmap.List, "project not found")(w, r)
}

// ListRoadmapByQuarter handles GET /api/v1/projects/{id}/roadmap/quarter/{quarter}.
func (h *Handlers) ListRoadmapByQuarter(w http.ResponseWriter, r *http.Request) {
	quarter := urlParam(r, "quarter")
	handleListByParam("id", func(ctx context.Context, id string) ([]roadmap.Task, error) {
		return h.Roadmap.ListByQuarter(ctx, id, quarter)
	}, "project not found")(w, r)
}

// ListRoadmapByStatus handles GET /api/v1/projects/{id}/roadmap/status/{status}.
func (h *Handlers) ListRoadmapByStatus(w http.ResponseWriter, r *http.Request) {
	status := roadmap.Status(urlParam(r, "status"))
	handleListByParam("id", func(ctx context.Context, id string) ([]roadmap.Task, error) {
		return h.Roadmap.ListByStatus(ctx, id, status)
	}, "project not found")(w, r)
}

// CreateRoadmapTask handles POST /api/v1/projects/{id}/roadmap.
func (h *Handlers) CreateRoadmapTask(w http.ResponseWriter, r *http.Request) {
	handleCreate[roadmap.CreateTaskRequest]("id", h.bodyLimit(), h.Roadmap.Create, "project not found")(w, r)
}

// BulkCreateRoadmapTasks handles POST /api/v1/projects/{id}/roadmap/bulk.
func (h *Handlers) BulkCreateRoadmapTasks(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[roadmap.BulkCreateRequest](w, r, h.bodyLimit())
	if !ok {
		return
	}
	tasks, err := h.Roadmap.BulkCreate(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, r, err, "project not found")
		return
	}
	writeJSON(w, http.StatusCreated, tasks)
}

// ClearRoadmap handles DELETE /api/v1/projects/{id}/roadmap.
func (h *Handlers) ClearRoadmap(w http.ResponseWriter, r *http.Request) {
	handleClear("id", h.Roadmap.Clear, "project not found")(w, r)
}

// GetRoadmapTask handles GET /api/v1/roadmap/{taskId}.
func (h *Handlers) GetRoadmapTask(w http.ResponseWriter, r *http.Request) {
	handleGet("taskId", h.Roadmap.Get, "roadmap task not found")(w, r)
}

// UpdateRoadmapTask handles PUT /api/v1/roadmap/{taskId}.
func (h *Handlers) UpdateRoadmapTask(w http.ResponseWriter, r *http.Request) {
	handleUpdate("taskId", h.bodyLimit(), h.Roadmap.Update, "roadmap task not found")(w, r)
}

// DeleteRoadmapTask handles DELETE /api/v1/roadmap/{taskId}.
func (h *Handlers) DeleteRoadmapTask(w http.ResponseWriter, r *http.Request) {
	handleDelete("taskId", h.Roadmap.Delete, "roadmap task not found")(w, r)
}

// --- Chat ---

// ListChatMessages handles GET /api/v1/projects/{id}/chat/messages.
func (h *Handlers) ListChatMessages(w http.ResponseWriter, r *http.Request) {
	handleListByParam("id", h.Chat.List, "project not found")(w, r)
}

// RecentChatMessages handles GET /api/v1/projects/{id}/chat/messages/recent?limit=N.
func (h *Handlers) RecentChatMessages(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", chat.DefaultRecentLimit)
	handleListByParam("id", func(ctx context.Context, id string) ([]chat.Message, error) {
		return h.Chat.Recent(ctx, id, limit)
	}, "project not found")(w, r)
}

// CreateChatMessage handles POST /api/v1/projects/{id}/chat/messages.
func (h *Handlers) CreateChatMessage(w http.ResponseWriter, r *http.Request) {
	handleCreate[chat.CreateRequest]("id", h.bodyLimit(), h.Chat.Create, "project not found")(w, r)
}

// DeleteChatMessage handles DELETE /api/v1/projects/{id}/chat/messages/{messageId}.
func (h *Handlers) DeleteChatMessage(w http.ResponseWriter, r *http.Request) {
	projectID := urlParam(r, "id")
	handleDelete("messageId", func(ctx context.Context, id string) error {
		return h.Chat.Delete(ctx, projectID, id)
	}, "chat message not found")(w, r)
}

// ClearChatMessages handles DELETE /api/v1/projects/{id}/chat/messages.
func (h *Handlers) ClearChatMessages(w http.ResponseWriter, r *http.Request) {
	handleClear("id", h.Chat.Clear, "project not found")(w, r)
}

// --- Health ---

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   time.Time         `json:"time"`
}

// Health handles GET /health. It reports 503 when a dependency is down.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}, Time: time.Now().UTC()}
	if h.DB != nil {
		if err := h.DB.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks["postgres"] = err.Error()
		} else {
			resp.Checks["postgres"] = "ok"
		}
	}
	if h.Queue != nil {
		if h.Queue.IsConnected() {
			resp.Checks["nats"] = "ok"
		} else {
			resp.Status = "degraded"
			resp.Checks["nats"] = "disconnected"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
