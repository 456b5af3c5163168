package users

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted at /users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.HandleSignup)
	r.Post("/login", h.HandleLogin)
	return r
}
