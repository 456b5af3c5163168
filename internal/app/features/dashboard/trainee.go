// internal/app/features/dashboard/trainee.go
package dashboard

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	progressstore "github.com/dalemusser/coachhub/internal/app/store/progress"
	resourcestore "github.com/dalemusser/coachhub/internal/app/store/resources"
	taskstore "github.com/dalemusser/coachhub/internal/app/store/tasks"
	"github.com/dalemusser/coachhub/internal/app/system/filestore"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeMe handles GET /dashboard/trainee/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadCaller(ctx, w, r)
	if !ok {
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}

// visibleResource loads a resource published by the trainee's agent.
// Anything else, including every resource when no agent is assigned, is
// reported as not found.
func (h *Handler) visibleResource(ctx context.Context, w http.ResponseWriter, r *http.Request, id primitive.ObjectID) (*models.Resource, bool) {
	u, ok := h.loadCaller(ctx, w, r)
	if !ok {
		return nil, false
	}
	res, err := h.Resources.GetByID(ctx, id)
	if err == nil && (u.AgentID == nil || res.AgentID != *u.AgentID) {
		err = resourcestore.ErrNotFound
	}
	if errors.Is(err, resourcestore.ErrNotFound) {
		uierrors.RenderNotFound(w, err.Error())
		return nil, false
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: load resource failed", err)
		return nil, false
	}
	return res, true
}

// HandleMarkProgress handles POST /dashboard/trainee/progress with form field
// resource_id. Marking the same resource again refreshes accessed_at.
func (h *Handler) HandleMarkProgress(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(r, 0); err != nil {
		uierrors.RenderParse(w, err)
		return
	}
	id, err := formutil.ObjectID(formutil.Value(r, "resource_id"))
	if err != nil {
		uierrors.RenderInvalidID(w, "resource id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, ok := h.visibleResource(ctx, w, r, id)
	if !ok {
		return
	}
	p, err := h.Progress.Mark(ctx, callerID(r), res.ID)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: mark progress failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, p)
}

// ServeProgress handles GET /dashboard/trainee/progress/{resourceId}.
func (h *Handler) ServeProgress(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(chi.URLParam(r, "resourceId"))
	if err != nil {
		uierrors.RenderInvalidID(w, "resource id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Progress.Get(ctx, callerID(r), id)
	if errors.Is(err, progressstore.ErrNotFound) {
		uierrors.RenderNotFound(w, err.Error())
		return
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: load progress failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, p)
}

// ServeTraineeResources handles GET /dashboard/trainee/resources. A trainee
// without an agent sees an empty list.
func (h *Handler) ServeTraineeResources(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, ok := h.loadCaller(ctx, w, r)
	if !ok {
		return
	}
	list := []models.Resource{}
	if u.AgentID != nil {
		var err error
		list, err = h.Resources.ListByAgent(ctx, *u.AgentID)
		if err != nil {
			uierrors.RenderServerError(w, h.Log, "dashboard: list resources failed", err)
			return
		}
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"resources": list})
}

// ServeTraineeTasks handles GET /dashboard/trainee/tasks.
func (h *Handler) ServeTraineeTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Tasks.ListByTrainee(ctx, callerID(r))
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: list tasks failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"tasks": list})
}

// HandleCompleteTask handles POST /dashboard/trainee/tasks/{taskId}/complete.
func (h *Handler) HandleCompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(chi.URLParam(r, "taskId"))
	if err != nil {
		uierrors.RenderInvalidID(w, "task id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, err := h.Tasks.Complete(ctx, id, callerID(r))
	if errors.Is(err, taskstore.ErrNotFound) {
		uierrors.RenderNotFound(w, err.Error())
		return
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: complete task failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, t)
}

// HandleUploadTranscript handles POST /dashboard/trainee/transcript with a
// "transcript" file part. A previous transcript file is deleted once the new
// one is recorded.
func (h *Handler) HandleUploadTranscript(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+(1<<20))
	if err := formutil.Parse(r, 0); err != nil {
		uierrors.RenderParse(w, err)
		return
	}
	defer formutil.Cleanup(r)

	_, fh, err := r.FormFile("transcript")
	if err != nil {
		uierrors.RenderValidation(w, errors.New("transcript is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	traineeID := callerID(r)
	stored, err := filestore.UploadMultipart(ctx, h.Files, "transcripts/"+traineeID.Hex(), fh, h.MaxUploadBytes)
	if err != nil {
		uierrors.RenderUpload(w, h.Log, "transcript", err)
		return
	}
	metrics.Uploads.WithLabelValues("transcript").Inc()

	t, oldKey, err := h.Transcripts.Upsert(ctx, traineeID, stored.URL, stored.Key)
	if err != nil {
		if derr := h.Files.Delete(context.WithoutCancel(ctx), stored.Key); derr != nil {
			h.Log.Warn("dashboard: failed to remove orphaned upload", zap.String("key", stored.Key), zap.Error(derr))
		}
		uierrors.RenderServerError(w, h.Log, "dashboard: save transcript failed", err)
		return
	}
	if oldKey != "" {
		if err := h.Files.Delete(ctx, oldKey); err != nil {
			h.Log.Warn("dashboard: failed to remove replaced transcript", zap.String("key", oldKey), zap.Error(err))
		}
	}
	uierrors.WriteJSON(w, http.StatusOK, t)
}
