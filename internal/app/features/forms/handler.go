// internal/app/features/forms/handler.go
package forms

import (
	formstore "github.com/dalemusser/coachhub/internal/app/store/forms"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/app/system/filestore"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes is the per-file limit when none is configured.
const DefaultMaxUploadBytes = 10 << 20

// Handler serves public application-form submission.
type Handler struct {
	Log            *zap.Logger
	Forms          *formstore.Store
	Users          *userstore.Store
	Files          filestore.Store
	MaxUploadBytes int64
	AuditLog       *auditlog.Logger
}

func NewHandler(db *mongo.Database, files filestore.Store, maxUploadBytes int64,
	audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		Log:            logger,
		Forms:          formstore.New(db),
		Users:          userstore.New(db),
		Files:          files,
		MaxUploadBytes: maxUploadBytes,
		AuditLog:       audit,
	}
}
