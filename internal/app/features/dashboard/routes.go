// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboards under whatever mount point the top-level
// router chooses (e.g., "/dashboard"). Each subtree is limited to its role.
func Routes(h *Handler, a *auth.Authenticator) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(a.RequireUser)

		pr.Route("/agent", func(ar chi.Router) {
			ar.Use(auth.RequireRole(models.RoleAgent))
			ar.Get("/trainees", h.ServeAgentTrainees)
			ar.Get("/trainee/{traineeId}/progress", h.ServeTraineeProgress)
			ar.Get("/trainee/{traineeId}/transcript", h.ServeTraineeTranscript)
			ar.Get("/resources", h.ServeAgentResources)
			ar.Post("/resources", h.HandleCreateResource)
			ar.Get("/tasks", h.ServeAgentTasks)
			ar.Post("/tasks/assign", h.HandleAssignTask)
			ar.Delete("/tasks/{taskId}", h.HandleDeleteTask)
		})

		pr.Route("/trainee", func(tr chi.Router) {
			tr.Use(auth.RequireRole(models.RoleTrainee))
			tr.Get("/me", h.ServeMe)
			tr.Post("/progress", h.HandleMarkProgress)
			tr.Get("/progress/{resourceId}", h.ServeProgress)
			tr.Get("/resources", h.ServeTraineeResources)
			tr.Get("/tasks", h.ServeTraineeTasks)
			tr.Post("/tasks/{taskId}/complete", h.HandleCompleteTask)
			tr.Post("/transcript", h.HandleUploadTranscript)
		})
	})

	return r
}
