// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/coachhub/internal/app/store/audit"
	"github.com/dalemusser/coachhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of audit events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls signup and login events.
	Auth string
	// Admin controls intake, invitation, assignment and deletion events.
	Admin string
}

// Logger records audit events to MongoDB (via audit.Store) and zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event according to the category's mode.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if setting == ModeAll || setting == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) event(r *http.Request, category, eventType string, success bool) audit.Event {
	e := audit.Event{Category: category, EventType: eventType, Success: success}
	if r != nil {
		e.IP = ratelimit.ClientIP(r)
		e.UserAgent = r.UserAgent()
	}
	return e
}

func idPtr(id primitive.ObjectID) *primitive.ObjectID {
	if id.IsZero() {
		return nil
	}
	return &id
}

// --- Authentication Events ---

// Signup logs a completed signup.
func (l *Logger) Signup(ctx context.Context, r *http.Request, userID primitive.ObjectID, role string) {
	e := l.event(r, audit.CategoryAuth, audit.EventSignup, true)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"role": role}
	l.Log(ctx, e)
}

// SignupFailedPasscode logs a signup rejected for a bad invitation code.
func (l *Logger) SignupFailedPasscode(ctx context.Context, r *http.Request, email, reason string) {
	e := l.event(r, audit.CategoryAuth, audit.EventSignupFailedPasscode, false)
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := l.event(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedUserNotFound logs a login for an unknown email.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, email string) {
	e := l.event(r, audit.CategoryAuth, audit.EventLoginFailedUserNotFound, false)
	e.FailureReason = "user not found"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedWrongPassword logs a login with the wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := l.event(r, audit.CategoryAuth, audit.EventLoginFailedWrongPassword, false)
	e.UserID = idPtr(userID)
	e.FailureReason = "wrong password"
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// LoginFailedRateLimit logs a login refused by the rate limiter.
func (l *Logger) LoginFailedRateLimit(ctx context.Context, r *http.Request, email, reason string) {
	e := l.event(r, audit.CategoryAuth, audit.EventLoginFailedRateLimit, false)
	e.FailureReason = reason
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// --- Admin Events ---

// FormSubmitted logs a new application form.
func (l *Logger) FormSubmitted(ctx context.Context, r *http.Request, formID primitive.ObjectID, role, email string) {
	e := l.event(r, audit.CategoryAdmin, audit.EventFormSubmitted, true)
	e.Details = map[string]string{"form_id": formID.Hex(), "role": role, "email": email}
	l.Log(ctx, e)
}

// FormDeleted logs an admin deleting an application form.
func (l *Logger) FormDeleted(ctx context.Context, r *http.Request, actorID, formID primitive.ObjectID) {
	e := l.event(r, audit.CategoryAdmin, audit.EventFormDeleted, true)
	e.ActorID = idPtr(actorID)
	e.Details = map[string]string{"form_id": formID.Hex()}
	l.Log(ctx, e)
}

// InvitationSent logs an invitation code being issued and emailed.
func (l *Logger) InvitationSent(ctx context.Context, r *http.Request, actorID, formID primitive.ObjectID, email string) {
	e := l.event(r, audit.CategoryAdmin, audit.EventInvitationSent, true)
	e.ActorID = idPtr(actorID)
	e.Details = map[string]string{"form_id": formID.Hex(), "email": email}
	l.Log(ctx, e)
}

// UserDeleted logs an admin deleting a user.
func (l *Logger) UserDeleted(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, role string) {
	e := l.event(r, audit.CategoryAdmin, audit.EventUserDeleted, true)
	e.ActorID = idPtr(actorID)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"role": role}
	l.Log(ctx, e)
}

// TraineeAssigned logs a trainee being linked to an agent.
func (l *Logger) TraineeAssigned(ctx context.Context, r *http.Request, actorID, agentID, traineeID primitive.ObjectID) {
	e := l.event(r, audit.CategoryAdmin, audit.EventTraineeAssigned, true)
	e.ActorID = idPtr(actorID)
	e.UserID = idPtr(traineeID)
	e.Details = map[string]string{"agent_id": agentID.Hex()}
	l.Log(ctx, e)
}

// TraineeUnassigned logs a trainee being unlinked from an agent.
func (l *Logger) TraineeUnassigned(ctx context.Context, r *http.Request, actorID, agentID, traineeID primitive.ObjectID) {
	e := l.event(r, audit.CategoryAdmin, audit.EventTraineeUnassigned, true)
	e.ActorID = idPtr(actorID)
	e.UserID = idPtr(traineeID)
	e.Details = map[string]string{"agent_id": agentID.Hex()}
	l.Log(ctx, e)
}

// AdminBootstrapped logs the startup creation of the initial admin account.
func (l *Logger) AdminBootstrapped(ctx context.Context, userID primitive.ObjectID, email string) {
	e := l.event(nil, audit.CategoryAdmin, audit.EventAdminBootstrapped, true)
	e.UserID = idPtr(userID)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}
