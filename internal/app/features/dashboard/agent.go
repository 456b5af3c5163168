// internal/app/features/dashboard/agent.go
package dashboard

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	resourcestore "github.com/dalemusser/coachhub/internal/app/store/resources"
	taskstore "github.com/dalemusser/coachhub/internal/app/store/tasks"
	transcriptstore "github.com/dalemusser/coachhub/internal/app/store/transcripts"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/filestore"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"github.com/dalemusser/coachhub/internal/app/system/inputval"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeAgentTrainees handles GET /dashboard/agent/trainees.
func (h *Handler) ServeAgentTrainees(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Users.ListTraineesOfAgent(ctx, callerID(r))
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: list trainees failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"trainees": list})
}

// ownTrainee loads a trainee assigned to the calling agent. Trainees of other
// agents are reported as not found.
func (h *Handler) ownTrainee(ctx context.Context, w http.ResponseWriter, r *http.Request, raw string) (*models.User, bool) {
	id, err := formutil.ObjectID(raw)
	if err != nil {
		uierrors.RenderInvalidID(w, "trainee id")
		return nil, false
	}
	t, err := h.Users.GetByIDAndRole(ctx, id, models.RoleTrainee)
	if err == nil && (t.AgentID == nil || *t.AgentID != callerID(r)) {
		err = userstore.ErrNotFound
	}
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, "trainee not found")
		return nil, false
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: load trainee failed", err)
		return nil, false
	}
	return t, true
}

// ServeTraineeProgress handles GET /dashboard/agent/trainee/{traineeId}/progress.
func (h *Handler) ServeTraineeProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, ok := h.ownTrainee(ctx, w, r, chi.URLParam(r, "traineeId"))
	if !ok {
		return
	}
	list, err := h.Progress.ListByTrainee(ctx, t.ID)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: list progress failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"trainee_id": t.ID, "progress": list})
}

// ServeTraineeTranscript handles GET /dashboard/agent/trainee/{traineeId}/transcript.
func (h *Handler) ServeTraineeTranscript(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, ok := h.ownTrainee(ctx, w, r, chi.URLParam(r, "traineeId"))
	if !ok {
		return
	}
	tr, err := h.Transcripts.GetByTrainee(ctx, t.ID)
	if errors.Is(err, transcriptstore.ErrNotFound) {
		uierrors.RenderNotFound(w, err.Error())
		return
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: load transcript failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, tr)
}

// ServeAgentResources handles GET /dashboard/agent/resources.
func (h *Handler) ServeAgentResources(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Resources.ListByAgent(ctx, callerID(r))
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: list resources failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"resources": list})
}

type resourceInput struct {
	Title       string `form:"title" validate:"required,max=200"`
	Description string `form:"description" validate:"max=5000"`
}

// HandleCreateResource handles POST /dashboard/agent/resources. The optional
// "file" part is stored and linked from the resource.
func (h *Handler) HandleCreateResource(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+(1<<20))
	if err := formutil.Parse(r, 0); err != nil {
		uierrors.RenderParse(w, err)
		return
	}
	defer formutil.Cleanup(r)

	in := resourceInput{
		Title:       formutil.Value(r, "title"),
		Description: formutil.Value(r, "description"),
	}
	if err := inputval.Validate(in); err != nil {
		uierrors.RenderValidation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	res := models.Resource{AgentID: callerID(r), Title: in.Title, Description: in.Description}
	if _, fh, err := r.FormFile("file"); err == nil {
		stored, err := filestore.UploadMultipart(ctx, h.Files, "resources/"+res.AgentID.Hex(), fh, h.MaxUploadBytes)
		if err != nil {
			uierrors.RenderUpload(w, h.Log, "file", err)
			return
		}
		metrics.Uploads.WithLabelValues("resource").Inc()
		res.FileURL, res.FileKey = stored.URL, stored.Key
	}

	created, err := h.Resources.Create(ctx, res)
	if err != nil {
		if res.FileKey != "" {
			if derr := h.Files.Delete(context.WithoutCancel(ctx), res.FileKey); derr != nil {
				h.Log.Warn("dashboard: failed to remove orphaned upload", zap.String("key", res.FileKey), zap.Error(derr))
			}
		}
		uierrors.RenderServerError(w, h.Log, "dashboard: create resource failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, created)
}

// ServeAgentTasks handles GET /dashboard/agent/tasks.
func (h *Handler) ServeAgentTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Tasks.ListByAgent(ctx, callerID(r))
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: list tasks failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"tasks": list})
}

type taskInput struct {
	TraineeID  string `form:"trainee_id" validate:"required,objectid"`
	TaskType   string `form:"task_type" validate:"required,oneof=quiz resource"`
	Title      string `form:"title" validate:"required,max=200"`
	ResourceID string `form:"resource_id" validate:"omitempty,objectid"`
}

// HandleAssignTask handles POST /dashboard/agent/tasks/assign.
func (h *Handler) HandleAssignTask(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(r, 0); err != nil {
		uierrors.RenderParse(w, err)
		return
	}
	in := taskInput{
		TraineeID:  formutil.Value(r, "trainee_id"),
		TaskType:   formutil.Value(r, "task_type"),
		Title:      formutil.Value(r, "title"),
		ResourceID: formutil.Value(r, "resource_id"),
	}
	if err := inputval.Validate(in); err != nil {
		uierrors.RenderValidation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	t, ok := h.ownTrainee(ctx, w, r, in.TraineeID)
	if !ok {
		return
	}

	task := models.Task{AgentID: callerID(r), TraineeID: t.ID, TaskType: in.TaskType, Title: in.Title}
	if in.ResourceID != "" {
		rid, _ := primitive.ObjectIDFromHex(in.ResourceID)
		res, err := h.Resources.GetByID(ctx, rid)
		if err == nil && res.AgentID != task.AgentID {
			err = resourcestore.ErrNotFound
		}
		if errors.Is(err, resourcestore.ErrNotFound) {
			uierrors.RenderNotFound(w, err.Error())
			return
		}
		if err != nil {
			uierrors.RenderServerError(w, h.Log, "dashboard: load resource failed", err)
			return
		}
		task.ResourceID = &rid
	}

	created, err := h.Tasks.Create(ctx, task)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: create task failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, created)
}

// HandleDeleteTask handles DELETE /dashboard/agent/tasks/{taskId}.
func (h *Handler) HandleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(chi.URLParam(r, "taskId"))
	if err != nil {
		uierrors.RenderInvalidID(w, "task id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Tasks.DeleteOwned(ctx, id, callerID(r)); err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			uierrors.RenderNotFound(w, err.Error())
			return
		}
		uierrors.RenderServerError(w, h.Log, "dashboard: delete task failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Task deleted"})
}
