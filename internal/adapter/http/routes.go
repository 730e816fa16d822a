package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(UpdateSource)

		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Projects
		r.Get("/projects", h.ListProjects)
		r.Post("/projects", h.CreateProject)
		r.Get("/projects/{id}", h.GetProject)
		r.Put("/projects/{id}", h.UpdateProject)
		r.Delete("/projects/{id}", h.DeleteProject)

		// Singleton documents
		r.Get("/projects/{id}/prd", h.GetPRD)
		r.Post("/projects/{id}/prd", h.CreatePRD)
		r.Put("/projects/{id}/prd", h.UpdatePRD)
		r.Get("/projects/{id}/spec", h.GetSpec)
		r.Post("/projects/{id}/spec", h.CreateSpec)
		r.Put("/projects/{id}/spec", h.UpdateSpec)

		// Roadmap (nested under projects)
		r.Get("/projects/{id}/roadmap", h.ListRoadmap)
		r.Post("/projects/{id}/roadmap", h.CreateRoadmapTask)
		r.Delete("/projects/{id}/roadmap", h.ClearRoadmap)
		r.Post("/projects/{id}/roadmap/bulk", h.BulkCreateRoadmapTasks)
		r.Get("/projects/{id}/roadmap/quarter/{quarter}", h.ListRoadmapByQuarter)
		r.Get("/projects/{id}/roadmap/status/{status}", h.ListRoadmapByStatus)

		// Roadmap tasks (direct access)
		r.Get("/roadmap/{taskId}", h.GetRoadmapTask)
		r.Put("/roadmap/{taskId}", h.UpdateRoadmapTask)
		r.Delete("/roadmap/{taskId}", h.DeleteRoadmapTask)

		// Chat transcript
		r.Get("/projects/{id}/chat/messages", h.ListChatMessages)
		r.Post("/projects/{id}/chat/messages", h.CreateChatMessage)
		r.Delete("/projects/{id}/chat/messages", h.ClearChatMessages)
		r.Get("/projects/{id}/chat/messages/recent", h.RecentChatMessages)
		r.Delete("/projects/{id}/chat/messages/{messageId}", h.DeleteChatMessage)
	})
}
