// internal/app/features/users/login.go
package users

import (
	"context"
	"errors"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"github.com/dalemusser/coachhub/internal/app/system/inputval"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
)

type loginInput struct {
	Email    string `form:"email" validate:"required,email_addr"`
	Password string `form:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
}

// HandleLogin handles POST /users/login and returns a bearer token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(r, 0); err != nil {
		uierrors.RenderParse(w, err)
		return
	}
	in := loginInput{
		Email:    normalize.Email(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if err := inputval.Validate(in); err != nil {
		uierrors.RenderValidation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, in.Email); !ok {
			h.AuditLog.LoginFailedRateLimit(ctx, r, in.Email, reason)
			uierrors.RenderTooManyRequests(w, reason)
			return
		}
	}

	u, err := h.Users.GetByEmail(ctx, in.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, in.Email)
		uierrors.RenderNotFound(w, "user not found")
		return
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "login: user lookup failed", err)
		return
	}

	if !userstore.CheckPassword(u, in.Password) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, in.Email)
		uierrors.RenderUnauthorized(w, "incorrect password")
		return
	}

	token, exp, err := h.Tokens.Issue(u.ID.Hex())
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "login: token issue failed", err)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(in.Email)
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, in.Email)

	uierrors.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   exp,
		UserID:      u.ID.Hex(),
		Role:        u.Role,
	})
}
