// internal/app/features/admin/users.go
package admin

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/app/system/txn"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeUsers handles GET /admin/users[?role=trainee|agent|admin].
func (h *Handler) ServeUsers(w http.ResponseWriter, r *http.Request) {
	role := normalize.Role(r.URL.Query().Get("role"))
	if role != "" && !models.IsValidRole(role) {
		uierrors.RenderValidation(w, errors.New("role must be one of: trainee, agent, admin"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Users.List(ctx, role)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: list users failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"users": list})
}

// ServeUser handles GET /admin/users/{id}.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderInvalidID(w, "user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, err.Error())
		return
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: load user failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, u)
}

// HandleDeleteUser handles DELETE /admin/users/{id}. Assignment links, tasks,
// progress, transcripts and resources owned by the user are removed with it.
func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := formutil.ObjectID(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderInvalidID(w, "user id")
		return
	}
	_, _, actorID, _ := authz.UserCtx(r)
	if id == actorID {
		uierrors.RenderForbidden(w, "admins cannot delete their own account")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, err.Error())
		return
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: load user failed", err)
		return
	}

	var fileKeys []string
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		fileKeys = nil
		if err := h.Assignments.DetachUser(ctx, *u); err != nil {
			return err
		}
		if _, err := h.Tasks.DeleteByUser(ctx, u.ID); err != nil {
			return err
		}
		switch u.Role {
		case models.RoleTrainee:
			if err := h.Progress.DeleteByTrainee(ctx, u.ID); err != nil {
				return err
			}
			key, err := h.Transcripts.DeleteByTrainee(ctx, u.ID)
			if err != nil {
				return err
			}
			if key != "" {
				fileKeys = append(fileKeys, key)
			}
		case models.RoleAgent:
			keys, err := h.Resources.DeleteByAgent(ctx, u.ID)
			if err != nil {
				return err
			}
			fileKeys = append(fileKeys, keys...)
		}
		n, err := h.Users.Delete(ctx, u.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return userstore.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderNotFound(w, err.Error())
		return
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: delete user failed", err)
		return
	}

	h.removeFiles(ctx, fileKeys)
	h.Log.Info("user deleted", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	h.AuditLog.UserDeleted(ctx, r, actorID, u.ID, u.Role)

	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// removeFiles deletes stored objects best-effort.
func (h *Handler) removeFiles(ctx context.Context, keys []string) {
	if h.Files == nil {
		return
	}
	for _, key := range keys {
		if err := h.Files.Delete(ctx, key); err != nil {
			h.Log.Warn("admin: failed to remove stored file", zap.String("key", key), zap.Error(err))
		}
	}
}
