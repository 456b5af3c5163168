// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/coachhub/internal/app/store/audit"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/auditlog"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// CoachHub has no self-service way to become an admin, so the first admin
// account is created here from admin_email/admin_password.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.AdminEmail == "" {
		logger.Info("admin_email not set; skipping admin bootstrap")
		return nil
	}
	return ensureAdmin(ctx, deps.MongoDatabase, appCfg.AdminEmail, appCfg.AdminPassword,
		newAuditLogger(appCfg, deps, logger), logger)
}

// ensureAdmin creates an admin with email if no user has it. An existing
// admin is left untouched; an existing non-admin is an error because roles
// never change.
func ensureAdmin(ctx context.Context, db *mongo.Database, email, password string, audit *auditlog.Logger, logger *zap.Logger) error {
	users := userstore.New(db)

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != models.RoleAdmin {
			return fmt.Errorf("admin_email %s belongs to a %s account", existing.Email, existing.Role)
		}
		logger.Debug("admin account already present", zap.String("email", existing.Email))
		return nil
	case !errors.Is(err, userstore.ErrNotFound):
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := userstore.HashPassword(password)
	if err != nil {
		return err
	}
	created, err := users.Create(ctx, models.User{
		Username:     "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		// Another instance created it first.
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Info("created initial admin account", zap.String("email", created.Email))
	audit.AdminBootstrapped(ctx, created.ID, created.Email)
	return nil
}

func newAuditLogger(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})
}
