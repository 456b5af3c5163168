// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/coachhub/internal/app/system/inputval"
	"go.uber.org/zap"
)

// body is the JSON shape of every error response.
type body struct {
	Error  string                `json:"error"`
	Fields []inputval.FieldError `json:"fields,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Render writes {"error": msg} with the given status.
func Render(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, body{Error: msg})
}

// RenderBadRequest writes a 400.
func RenderBadRequest(w http.ResponseWriter, msg string) {
	Render(w, http.StatusBadRequest, msg)
}

// RenderUnauthorized writes a 401.
func RenderUnauthorized(w http.ResponseWriter, msg string) {
	Render(w, http.StatusUnauthorized, msg)
}

// RenderForbidden writes a 403.
func RenderForbidden(w http.ResponseWriter, msg string) {
	Render(w, http.StatusForbidden, msg)
}

// RenderNotFound writes a 404.
func RenderNotFound(w http.ResponseWriter, msg string) {
	Render(w, http.StatusNotFound, msg)
}

// RenderConflict writes a 409.
func RenderConflict(w http.ResponseWriter, msg string) {
	Render(w, http.StatusConflict, msg)
}

// RenderTooManyRequests writes a 429.
func RenderTooManyRequests(w http.ResponseWriter, msg string) {
	Render(w, http.StatusTooManyRequests, msg)
}

// RenderValidation writes a 422. Field-level details are included when err
// came from inputval.Validate.
func RenderValidation(w http.ResponseWriter, err error) {
	var fe inputval.Errors
	if stderrors.As(err, &fe) {
		WriteJSON(w, http.StatusUnprocessableEntity, body{Error: "validation failed", Fields: fe})
		return
	}
	Render(w, http.StatusUnprocessableEntity, err.Error())
}

// RenderInvalidID writes the 422 for a malformed identifier.
func RenderInvalidID(w http.ResponseWriter, what string) {
	Render(w, http.StatusUnprocessableEntity, "invalid "+what)
}

// RenderBadGateway logs err and writes a 502 for mail or storage failures.
func RenderBadGateway(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Error(msg, zap.Error(err))
	}
	Render(w, http.StatusBadGateway, msg)
}

// RenderServerError logs err and writes a generic 500.
func RenderServerError(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Error(msg, zap.Error(err))
	}
	Render(w, http.StatusInternalServerError, "internal server error")
}
