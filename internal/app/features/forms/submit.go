// internal/app/features/forms/submit.go
package forms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	uierrors "github.com/dalemusser/coachhub/internal/app/features/errors"
	formstore "github.com/dalemusser/coachhub/internal/app/store/forms"
	"github.com/dalemusser/coachhub/internal/app/system/filestore"
	"github.com/dalemusser/coachhub/internal/app/system/formutil"
	"github.com/dalemusser/coachhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/coachhub/internal/app/system/inputval"
	"github.com/dalemusser/coachhub/internal/app/system/metrics"
	"github.com/dalemusser/coachhub/internal/app/system/normalize"
	"github.com/dalemusser/coachhub/internal/app/system/timeouts"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"go.uber.org/zap"
)

type commonInput struct {
	FullName    string `form:"full_name" validate:"required,max=200"`
	Email       string `form:"email" validate:"required,email_addr"`
	PhoneNumber string `form:"phone_number" validate:"required,min=7,max=20"`
	Gender      string `form:"gender" validate:"required,oneof=male female"`
}

type traineeInput struct {
	commonInput
	ParentName       string `form:"parent_name" validate:"required,max=200"`
	ParentContact    string `form:"parent_contact" validate:"required,min=7,max=20"`
	ParentOccupation string `form:"parent_occupation" validate:"max=200"`
}

type agentInput struct {
	commonInput
	Profession        string `form:"profession" validate:"required,max=200"`
	YearsOfExperience int    `form:"years_of_experience" validate:"gte=0,lte=70"`
}

type document struct {
	field    string
	required bool
}

var traineeDocuments = []document{
	{models.DocIdentityCard, true},
	{models.DocBirthCertificate, true},
	{models.DocExamCertificate, true},
	{models.DocParentIdentityCard, false},
}

var agentDocuments = []document{
	{models.DocCertificate, true},
	{models.DocIdentityCard, true},
}

func readCommon(r *http.Request) commonInput {
	gender := normalize.Gender(r.FormValue("gender"))
	if gender == "" {
		gender = "male"
	}
	return commonInput{
		FullName:    htmlsanitize.Plain(normalize.Name(r.FormValue("full_name"))),
		Email:       normalize.Email(r.FormValue("email")),
		PhoneNumber: normalize.Phone(r.FormValue("phone_number")),
		Gender:      gender,
	}
}

// HandleTraineeForm handles POST /forms/trainee.
func (h *Handler) HandleTraineeForm(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	defer formutil.Cleanup(r)

	in := traineeInput{
		commonInput:      readCommon(r),
		ParentName:       htmlsanitize.Plain(normalize.Name(r.FormValue("parent_name"))),
		ParentContact:    normalize.Phone(r.FormValue("parent_contact")),
		ParentOccupation: htmlsanitize.Plain(normalize.Name(r.FormValue("parent_occupation"))),
	}
	if err := inputval.Validate(in); err != nil {
		uierrors.RenderValidation(w, err)
		return
	}

	h.submit(w, r, models.ApplicationForm{
		Role:             models.RoleTrainee,
		FullName:         in.FullName,
		Email:            in.Email,
		PhoneNumber:      in.PhoneNumber,
		Gender:           in.Gender,
		ParentName:       in.ParentName,
		ParentContact:    in.ParentContact,
		ParentOccupation: in.ParentOccupation,
	}, traineeDocuments)
}

// HandleAgentForm handles POST /forms/agent.
func (h *Handler) HandleAgentForm(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	defer formutil.Cleanup(r)

	in := agentInput{
		commonInput: readCommon(r),
		Profession:  htmlsanitize.Plain(normalize.Name(r.FormValue("profession"))),
	}
	if raw := formutil.Value(r, "years_of_experience"); raw != "" {
		years, err := strconv.Atoi(raw)
		if err != nil {
			uierrors.RenderValidation(w, inputval.Errors{{Field: "years_of_experience", Message: "must be a whole number"}})
			return
		}
		in.YearsOfExperience = years
	}
	if err := inputval.Validate(in); err != nil {
		uierrors.RenderValidation(w, err)
		return
	}

	h.submit(w, r, models.ApplicationForm{
		Role:              models.RoleAgent,
		FullName:          in.FullName,
		Email:             in.Email,
		PhoneNumber:       in.PhoneNumber,
		Gender:            in.Gender,
		Profession:        in.Profession,
		YearsOfExperience: in.YearsOfExperience,
	}, agentDocuments)
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) bool {
	// Room for every document plus the text fields.
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes*int64(len(traineeDocuments))+(1<<20))
	if err := formutil.Parse(r, 0); err != nil {
		uierrors.RenderParse(w, err)
		return false
	}
	return true
}

// submit checks that the email is free, uploads the documents, and stores
// the form. Uploaded files are removed if a later step fails.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, form models.ApplicationForm, docs []document) {
	for _, d := range docs {
		if d.required && !hasFile(r, d.field) {
			uierrors.RenderValidation(w, inputval.Errors{{Field: d.field, Message: "is required"}})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	if taken, err := h.emailTaken(ctx, form.Email); err != nil {
		uierrors.RenderServerError(w, h.Log, "forms: email lookup failed", err)
		return
	} else if taken {
		uierrors.RenderConflict(w, formstore.ErrDuplicateEmail.Error())
		return
	}

	form.Documents = map[string]string{}
	form.DocumentKeys = map[string]string{}
	var uploaded []string
	cleanup := func() {
		for _, key := range uploaded {
			if err := h.Files.Delete(context.WithoutCancel(ctx), key); err != nil {
				h.Log.Warn("forms: failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
			}
		}
	}

	for _, d := range docs {
		if !hasFile(r, d.field) {
			continue
		}
		_, fh, _ := r.FormFile(d.field)
		stored, err := filestore.UploadMultipart(ctx, h.Files, "forms/"+form.Role, fh, h.MaxUploadBytes)
		if err != nil {
			cleanup()
			uierrors.RenderUpload(w, h.Log, d.field, err)
			return
		}
		metrics.Uploads.WithLabelValues("form_document").Inc()
		uploaded = append(uploaded, stored.Key)
		form.Documents[d.field] = stored.URL
		form.DocumentKeys[d.field] = stored.Key
	}

	created, err := h.Forms.Create(ctx, form)
	if err != nil {
		cleanup()
		if errors.Is(err, formstore.ErrDuplicateEmail) {
			uierrors.RenderConflict(w, err.Error())
			return
		}
		uierrors.RenderServerError(w, h.Log, "forms: insert failed", err)
		return
	}

	h.Log.Info("application form submitted",
		zap.String("form_id", created.ID.Hex()),
		zap.String("role", created.Role))
	h.AuditLog.FormSubmitted(ctx, r, created.ID, created.Role, created.Email)

	uierrors.WriteJSON(w, http.StatusCreated, map[string]string{
		"message": fmt.Sprintf("%s application submitted", created.Role),
		"form_id": created.ID.Hex(),
	})
}

func (h *Handler) emailTaken(ctx context.Context, email string) (bool, error) {
	if taken, err := h.Forms.EmailExists(ctx, email); err != nil || taken {
		return taken, err
	}
	return h.Users.EmailExists(ctx, email)
}

func hasFile(r *http.Request, field string) bool {
	if r.MultipartForm == nil {
		return false
	}
	fhs := r.MultipartForm.File[field]
	return len(fhs) > 0 && fhs[0].Size > 0
}
