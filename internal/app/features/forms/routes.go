package forms

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted at /forms.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/trainee", h.HandleTraineeForm)
	r.Post("/agent", h.HandleAgentForm)
	return r
}
