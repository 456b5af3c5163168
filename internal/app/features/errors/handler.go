// internal/app/features/errors/handler.go
package errors

import "net/http"

// NotFound is the router's fallback for unknown paths.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	RenderNotFound(w, "not found")
}

// MethodNotAllowed is the router's fallback for a known path with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	Render(w, http.StatusMethodNotAllowed, "method not allowed")
}
