// internal/app/features/users/signup.go
package users

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	"github.com/dalemusser/coachhub/internal/app/store/invitations"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"github.com/dalemusser/coachhub/internal/app/system/inputval"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/app/system/txn"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type signupInput struct {
	Username string `form:"username" validate:"required,max=100"`
	Email    string `form:"email" validate:"required,email_addr"`
	Password string `form:"password" validate:"required,min=8,max=72"`
	Role     string `form:"role" validate:"required,oneof=trainee agent"`
	Passcode string `form:"passcode"`
}

var errInvitationUsed = errors.New("invitation already used")

// HandleSignup handles POST /users/signup.
//
// Checks run in order: password confirmation (400), field validation (422),
// duplicate email (409), invitation code (403). A missing or malformed code is
// a 403 like a wrong one. The user is created and the invitation and its
// application form are consumed together.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(r, 0); err != nil {
		uierrors.RenderParse(w, err)
		return
	}
	defer formutil.Cleanup(r)

	in := signupInput{
		Username: normalize.Name(r.FormValue("username")),
		Email:    normalize.Email(r.FormValue("email")),
		Password: r.FormValue("password"),
		Role:     normalize.Role(r.FormValue("role")),
		Passcode: formutil.Value(r, "passcode"),
	}
	if in.Role == "" {
		in.Role = models.RoleTrainee
	}

	if in.Password != r.FormValue("confirm_password") {
		uierrors.RenderBadRequest(w, "passwords do not match")
		return
	}
	if err := inputval.Validate(in); err != nil {
		uierrors.RenderValidation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	exists, err := h.Users.EmailExists(ctx, in.Email)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "signup: email lookup failed", err)
		return
	}
	if exists {
		uierrors.RenderConflict(w, userstore.ErrDuplicateEmail.Error())
		return
	}

	if !wellFormedCode(in.Passcode) {
		h.AuditLog.SignupFailedPasscode(ctx, r, in.Email, "malformed passcode")
		uierrors.RenderForbidden(w, "invalid passcode")
		return
	}

	// Verified outside the transaction so failed attempts are counted.
	inv, err := h.Invites.Verify(ctx, in.Email, in.Role, in.Passcode)
	if err != nil {
		switch {
		case errors.Is(err, invitations.ErrNotFound),
			errors.Is(err, invitations.ErrInvalidCode),
			errors.Is(err, invitations.ErrTooManyAttempts):
			h.AuditLog.SignupFailedPasscode(ctx, r, in.Email, err.Error())
			uierrors.RenderForbidden(w, "invalid passcode")
		default:
			uierrors.RenderServerError(w, h.Log, "signup: invitation check failed", err)
		}
		return
	}

	hash, err := userstore.HashPassword(in.Password)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "signup: hash failed", err)
		return
	}

	created, err := h.createAccount(ctx, inv, models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateEmail):
			uierrors.RenderConflict(w, err.Error())
		case errors.Is(err, errInvitationUsed):
			uierrors.RenderForbidden(w, "invalid passcode")
		default:
			uierrors.RenderServerError(w, h.Log, "signup: create failed", err)
		}
		return
	}

	h.Log.Info("user signed up",
		zap.String("user_id", created.ID.Hex()),
		zap.String("role", created.Role))
	h.AuditLog.Signup(ctx, r, created.ID, created.Role)

	uierrors.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "User created successfully",
		"user_id": created.ID.Hex(),
	})
}

// createAccount claims the invitation, creates the user and removes the
// application form. The claim comes first, so a signup that loses a race for
// the same invitation writes nothing. Without a transaction, later failures
// undo the earlier writes.
func (h *Handler) createAccount(ctx context.Context, inv *invitations.Invitation, u models.User) (models.User, error) {
	var created models.User
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if err := h.Invites.Consume(ctx, inv.ID); err != nil {
			if errors.Is(err, invitations.ErrNotFound) {
				return errInvitationUsed
			}
			return err
		}
		undo := mongo.SessionFromContext(ctx) == nil
		nu, err := h.Users.Create(ctx, u)
		if err != nil {
			if undo {
				h.restoreInvitation(ctx, inv)
			}
			return err
		}
		if _, err := h.Forms.Delete(ctx, inv.FormID); err != nil {
			if undo {
				if _, uerr := h.Users.Delete(ctx, nu.ID); uerr != nil {
					h.Log.Error("signup: failed to undo user",
						zap.String("user_id", nu.ID.Hex()), zap.Error(uerr))
				}
				h.restoreInvitation(ctx, inv)
			}
			return err
		}
		created = nu
		return nil
	})
	return created, err
}

func (h *Handler) restoreInvitation(ctx context.Context, inv *invitations.Invitation) {
	if err := h.Invites.Restore(ctx, *inv); err != nil {
		h.Log.Error("signup: failed to restore invitation",
			zap.String("form_id", inv.FormID.Hex()), zap.Error(err))
	}
}

func wellFormedCode(code string) bool {
	if len(code) != invitations.CodeLength {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
