// internal/app/features/admin/routes.go
package admin

import (
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the admin endpoints under the path where this router is
// mounted (typically "/admin" from bootstrap).
func Routes(h *Handler, a *auth.Authenticator) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(a.RequireUser)
		pr.Use(auth.RequireRole(models.RoleAdmin))

		pr.Get("/users", h.ServeUsers)
		pr.Get("/users/{id}", h.ServeUser)
		pr.Delete("/users/{id}", h.HandleDeleteUser)

		pr.Get("/forms", h.ServeForms)
		pr.Get("/forms/{id}", h.ServeForm)
		pr.Delete("/forms/{id}", h.HandleDeleteForm)
		pr.Post("/forms/{id}/invite", h.HandleInvite)
		pr.Post("/send_verification_code", h.HandleSendVerificationCode)

		pr.Post("/assign_agent/{agentId}", h.HandleAssign)
		pr.Post("/unassign_agent/{agentId}", h.HandleUnassign)

		pr.Get("/audit", h.ServeAudit)
	})

	return r
}
