// internal/app/features/admin/assign.go
package admin

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/store/assignments"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func (h *Handler) assignmentIDs(w http.ResponseWriter, r *http.Request) (agentID, traineeID primitive.ObjectID, ok bool) {
	agentID, err := formutil.ObjectID(chi.URLParam(r, "agentId"))
	if err != nil {
		uierrors.RenderInvalidID(w, "agent id")
		return agentID, traineeID, false
	}
	if err := formutil.Parse(r, 0); err != nil {
		uierrors.RenderParse(w, err)
		return agentID, traineeID, false
	}
	traineeID, err = formutil.ObjectID(r.FormValue("trainee_id"))
	if err != nil {
		uierrors.RenderInvalidID(w, "trainee id")
		return agentID, traineeID, false
	}
	return agentID, traineeID, true
}

// HandleAssign handles POST /admin/assign_agent/{agentId} with form field trainee_id.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	agentID, traineeID, ok := h.assignmentIDs(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Assignments.Assign(ctx, agentID, traineeID)
	switch {
	case err == nil:
		metrics.Assignments.WithLabelValues("assigned").Inc()
	case errors.Is(err, assignments.ErrAgentNotFound), errors.Is(err, assignments.ErrTraineeNotFound):
		metrics.Assignments.WithLabelValues("not_found").Inc()
		uierrors.RenderNotFound(w, err.Error())
		return
	case errors.Is(err, assignments.ErrTraineeAlreadyAssigned):
		metrics.Assignments.WithLabelValues("already_assigned").Inc()
		uierrors.RenderConflict(w, err.Error())
		return
	case errors.Is(err, assignments.ErrAgentAtCapacity):
		metrics.Assignments.WithLabelValues("at_capacity").Inc()
		uierrors.RenderConflict(w, err.Error())
		return
	default:
		metrics.Assignments.WithLabelValues("error").Inc()
		uierrors.RenderServerError(w, h.Log, "admin: assign failed", err)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.Log.Info("trainee assigned",
		zap.String("agent_id", agentID.Hex()),
		zap.String("trainee_id", traineeID.Hex()))
	h.AuditLog.TraineeAssigned(ctx, r, actorID, agentID, traineeID)

	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Agent assigned to trainee successfully"})
}

// HandleUnassign handles POST /admin/unassign_agent/{agentId} with form field trainee_id.
func (h *Handler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	agentID, traineeID, ok := h.assignmentIDs(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Assignments.Unassign(ctx, agentID, traineeID); err != nil {
		if errors.Is(err, assignments.ErrNotAssigned) {
			uierrors.RenderNotFound(w, err.Error())
			return
		}
		uierrors.RenderServerError(w, h.Log, "admin: unassign failed", err)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.TraineeUnassigned(ctx, r, actorID, agentID, traineeID)

	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Trainee unassigned"})
}
