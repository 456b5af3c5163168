// internal/app/features/admin/handler.go
package admin

import (
	"github.com/dalemusser/coachhub/internal/app/store/assignments"
	"github.com/dalemusser/coachhub/internal/app/store/audit"
	formstore "github.com/dalemusser/coachhub/internal/app/store/forms"
	"github.com/dalemusser/coachhub/internal/app/store/invitations"
	progressstore "github.com/dalemusser/coachhub/internal/app/store/progress"
	resourcestore "github.com/dalemusser/coachhub/internal/app/store/resources"
	taskstore "github.com/dalemusser/coachhub/internal/app/store/tasks"
	transcriptstore "github.com/dalemusser/coachhub/internal/app/store/transcripts"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/app/system/filestore"
	"github.com/dalemusser/coachhub/internal/app/system/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin dashboard.
type Handler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	Users       *userstore.Store
	Forms       *formstore.Store
	Invites     *invitations.Store
	Assignments *assignments.Store
	Tasks       *taskstore.Store
	Resources   *resourcestore.Store
	Progress    *progressstore.Store
	Transcripts *transcriptstore.Store
	Audit       *audit.Store
	AuditLog    *auditlog.Logger
	Files       filestore.Store
	Mail        mailer.Sender
	SiteName    string
}

// Deps are the collaborators built once in bootstrap.
type Deps struct {
	Invites  *invitations.Store
	Files    filestore.Store
	Mail     mailer.Sender
	AuditLog *auditlog.Logger
	SiteName string
}

func NewHandler(db *mongo.Database, deps Deps, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          db,
		Log:         logger,
		Users:       userstore.New(db),
		Forms:       formstore.New(db),
		Invites:     deps.Invites,
		Assignments: assignments.New(db, logger),
		Tasks:       taskstore.New(db),
		Resources:   resourcestore.New(db),
		Progress:    progressstore.New(db),
		Transcripts: transcriptstore.New(db),
		Audit:       audit.New(db),
		AuditLog:    deps.AuditLog,
		Files:       deps.Files,
		Mail:        deps.Mail,
		SiteName:    deps.SiteName,
	}
}
