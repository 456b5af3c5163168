// internal/app/features/users/handler.go
package users

import (
	formstore "github.com/dalemusser/coachhub/internal/app/store/forms"
	"github.com/dalemusser/coachhub/internal/app/store/invitations"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves signup and login.
type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	Users    *userstore.Store
	Forms    *formstore.Store
	Invites  *invitations.Store
	Tokens   *auth.TokenManager
	Limiter  *ratelimit.LoginLimiter
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, invites *invitations.Store, tokens *auth.TokenManager,
	limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		Users:    userstore.New(db),
		Forms:    formstore.New(db),
		Invites:  invites,
		Tokens:   tokens,
		Limiter:  limiter,
		AuditLog: audit,
	}
}
