// internal/app/features/errors/uploads.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/dalemusser/coachhub/internal/app/system/filestore"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"go.uber.org/zap"
)

// RenderUpload maps a filestore error to 422 (bad file), 502 (backend
// unavailable) or 500.
func RenderUpload(w http.ResponseWriter, log *zap.Logger, field string, err error) {
	switch {
	case stderrors.Is(err, filestore.ErrUnsupportedType),
		stderrors.Is(err, filestore.ErrTooLarge),
		stderrors.Is(err, filestore.ErrEmpty):
		Render(w, http.StatusUnprocessableEntity, field+": "+err.Error())
	case stderrors.Is(err, filestore.ErrStorage):
		RenderBadGateway(w, log, "file storage unavailable", err)
	default:
		RenderServerError(w, log, "upload failed", err)
	}
}

// RenderParse writes the response for a formutil.Parse failure: 422 when the
// body ran past its upload limit, 400 otherwise.
func RenderParse(w http.ResponseWriter, err error) {
	if stderrors.Is(err, formutil.ErrBodyTooLarge) {
		Render(w, http.StatusUnprocessableEntity, filestore.ErrTooLarge.Error())
		return
	}
	RenderBadRequest(w, err.Error())
}
