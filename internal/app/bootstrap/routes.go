// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	adminfeature "github.com/dalemusser/coachhub/internal/app/features/admin"
	dashboardfeature "github.com/dalemusser/coachhub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/coachhub/internal/app/features/errors"
	formsfeature "github.com/dalemusser/coachhub/internal/app/features/forms"
	healthfeature "github.com/dalemusser/coachhub/internal/app/features/health"
	homefeature "github.com/dalemusser/coachhub/internal/app/features/home"
	usersfeature "github.com/dalemusser/coachhub/internal/app/features/users"
	"github.com/dalemusser/coachhub/internal/app/store/invitations"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/auth"
	"github.com/dalemusser/coachhub/internal/app/system/mailer"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Shared collaborators (token manager,
// invitation store, mailer, audit logger) are built once here and handed to
// the feature handlers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	tokens, err := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTAlgorithm, appCfg.TokenTTL)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	authenticator := auth.NewAuthenticator(tokens, userstore.NewFetcher(db, logger), logger)

	invites := invitations.New(db, appCfg.InvitationExpiry)
	auditLog := newAuditLogger(appCfg, deps, logger)
	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	limiter := ratelimit.NewLoginLimiter(appCfg.LoginRateIP, appCfg.LoginRateEmail)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler())

	// Uploaded documents, when stored on local disk
	if deps.LocalFiles != nil {
		r.Handle(appCfg.StorageLocalURL+"/*", deps.LocalFiles.Handler())
	}

	homeHandler := homefeature.NewHandler(appCfg.SiteName)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Signup and login
	usersHandler := usersfeature.NewHandler(db, invites, tokens, limiter, auditLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	// Application intake
	formsHandler := formsfeature.NewHandler(db, deps.Files, appCfg.maxUploadBytes(), auditLog, logger)
	r.Mount("/forms", formsfeature.Routes(formsHandler))

	// Admin management
	adminHandler := adminfeature.NewHandler(db, adminfeature.Deps{
		Invites:  invites,
		Files:    deps.Files,
		Mail:     mail,
		AuditLog: auditLog,
		SiteName: appCfg.SiteName,
	}, logger)
	r.Mount("/admin", adminfeature.Routes(adminHandler, authenticator))

	// Role-based dashboards
	dashboardHandler := dashboardfeature.NewHandler(db, deps.Files, appCfg.maxUploadBytes(), logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, authenticator))

	logger.Info("routes mounted", zap.String("env", coreCfg.Env))
	return r, nil
}
