package home

import (
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
)

// Handler serves the public landing endpoint.
type Handler struct {
	SiteName string
}

func NewHandler(siteName string) *Handler {
	if siteName == "" {
		siteName = "CoachHub"
	}
	return &Handler{SiteName: siteName}
}

// ServeRoot handles GET /.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to " + h.SiteName,
	})
}
