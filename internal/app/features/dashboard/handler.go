// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	progressstore "github.com/dalemusser/coachhub/internal/app/store/progress"
	resourcestore "github.com/dalemusser/coachhub/internal/app/store/resources"
	taskstore "github.com/dalemusser/coachhub/internal/app/store/tasks"
	transcriptstore "github.com/dalemusser/coachhub/internal/app/store/transcripts"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/filestore"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes is the per-file limit when none is configured.
const DefaultMaxUploadBytes = 10 << 20

// Handler serves the agent and trainee dashboards. Every query is scoped to
// the signed-in user.
type Handler struct {
	DB             *mongo.Database
	Log            *zap.Logger
	Users          *userstore.Store
	Resources      *resourcestore.Store
	Tasks          *taskstore.Store
	Progress       *progressstore.Store
	Transcripts    *transcriptstore.Store
	Files          filestore.Store
	MaxUploadBytes int64
}

func NewHandler(db *mongo.Database, files filestore.Store, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		DB:             db,
		Log:            logger,
		Users:          userstore.New(db),
		Resources:      resourcestore.New(db),
		Tasks:          taskstore.New(db),
		Progress:       progressstore.New(db),
		Transcripts:    transcriptstore.New(db),
		Files:          files,
		MaxUploadBytes: maxUploadBytes,
	}
}

// callerID returns the signed-in user's id. The route guards guarantee one.
func callerID(r *http.Request) primitive.ObjectID {
	_, _, id, _ := authz.UserCtx(r)
	return id
}

// loadCaller reloads the signed-in user so assignment fields are current.
func (h *Handler) loadCaller(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, err := h.Users.GetByID(ctx, callerID(r))
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.RenderUnauthorized(w, "account no longer exists")
		return nil, false
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "dashboard: load caller failed", err)
		return nil, false
	}
	return u, true
}
