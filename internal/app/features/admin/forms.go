// internal/app/features/admin/forms.go
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	formstore "github.com/dalemusser/coachhub/internal/app/store/forms"
	"github.com/dalemusser/coachhub/internal/app/system/authz"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"github.com/dalemusser/coachhub/internal/app/system/inputval"
	"github.com/dalemusser/coachhub/internal/app/system/mailer"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeForms handles GET /admin/forms[?role=trainee|agent].
func (h *Handler) ServeForms(w http.ResponseWriter, r *http.Request) {
	role := normalize.Role(r.URL.Query().Get("role"))
	if role != "" && role != models.RoleTrainee && role != models.RoleAgent {
		uierrors.RenderValidation(w, errors.New("role must be one of: trainee, agent"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Forms.List(ctx, role)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: list forms failed", err)
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]any{"forms": list})
}

// ServeForm handles GET /admin/forms/{id}.
func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	form, ok := h.loadForm(w, r)
	if !ok {
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, form)
}

// HandleDeleteForm handles DELETE /admin/forms/{id}. The form's invitation and
// uploaded documents are removed too.
func (h *Handler) HandleDeleteForm(w http.ResponseWriter, r *http.Request) {
	form, ok := h.loadForm(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Invites.DeleteByForm(ctx, form.ID); err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: delete invitation failed", err)
		return
	}
	n, err := h.Forms.Delete(ctx, form.ID)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: delete form failed", err)
		return
	}
	if n == 0 {
		uierrors.RenderNotFound(w, formstore.ErrNotFound.Error())
		return
	}

	keys := make([]string, 0, len(form.DocumentKeys))
	for _, k := range form.DocumentKeys {
		keys = append(keys, k)
	}
	h.removeFiles(ctx, keys)

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.FormDeleted(ctx, r, actorID, form.ID)

	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"message": "Form deleted"})
}

// HandleInvite handles POST /admin/forms/{id}/invite.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	form, ok := h.loadForm(w, r)
	if !ok {
		return
	}
	h.invite(w, r, form)
}

type sendCodeInput struct {
	Email string `form:"email" validate:"required,email_addr"`
}

// HandleSendVerificationCode handles POST /admin/send_verification_code. It
// invites the applicant whose form carries the given email.
func (h *Handler) HandleSendVerificationCode(w http.ResponseWriter, r *http.Request) {
	if err := formutil.Parse(r, 0); err != nil {
		uierrors.RenderParse(w, err)
		return
	}
	in := sendCodeInput{Email: normalize.Email(r.FormValue("email"))}
	if err := inputval.Validate(in); err != nil {
		uierrors.RenderValidation(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	form, err := h.Forms.GetByEmail(ctx, in.Email)
	if errors.Is(err, formstore.ErrNotFound) {
		uierrors.RenderNotFound(w, "no application form for this email")
		return
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: load form failed", err)
		return
	}
	h.invite(w, r, form)
}

// invite issues a fresh invitation code for form and emails it. The code is
// withdrawn again if the email cannot be sent.
func (h *Handler) invite(w http.ResponseWriter, r *http.Request, form *models.ApplicationForm) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Invites.Issue(ctx, *form)
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: issue invitation failed", err)
		return
	}

	email := mailer.BuildInvitationEmail(mailer.InvitationEmailData{
		SiteName:  h.SiteName,
		FullName:  form.FullName,
		Role:      form.Role,
		Code:      res.Code,
		ExpiresIn: formatExpiry(h.Invites.Expiry()),
	})
	email.To = form.Email

	if err := h.Mail.Send(ctx, email); err != nil {
		if derr := h.Invites.DeleteByForm(context.WithoutCancel(ctx), form.ID); derr != nil {
			h.Log.Warn("admin: failed to withdraw unsent invitation", zap.Error(derr))
		}
		uierrors.RenderBadGateway(w, h.Log, "could not send invitation email", err)
		return
	}

	if err := h.Forms.MarkInvited(ctx, form.ID, time.Now()); err != nil {
		h.Log.Warn("admin: failed to mark form invited", zap.String("form_id", form.ID.Hex()), zap.Error(err))
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.InvitationSent(ctx, r, actorID, form.ID, form.Email)

	uierrors.WriteJSON(w, http.StatusOK, map[string]any{
		"message":    "Invitation sent to " + form.Email,
		"form_id":    form.ID.Hex(),
		"expires_at": res.ExpiresAt,
	})
}

func (h *Handler) loadForm(w http.ResponseWriter, r *http.Request) (*models.ApplicationForm, bool) {
	id, err := formutil.ObjectID(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderInvalidID(w, "form id")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	form, err := h.Forms.GetByID(ctx, id)
	if errors.Is(err, formstore.ErrNotFound) {
		uierrors.RenderNotFound(w, err.Error())
		return nil, false
	}
	if err != nil {
		uierrors.RenderServerError(w, h.Log, "admin: load form failed", err)
		return nil, false
	}
	return form, true
}

// formatExpiry renders d as "72 hours", "1 hour" or "30 minutes".
func formatExpiry(d time.Duration) string {
	plural := func(n int, unit string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", unit)
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int(d/time.Hour), "hour")
	}
	return plural(int(d/time.Minute), "minute")
}
