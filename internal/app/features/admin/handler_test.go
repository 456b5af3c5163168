package admin_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/coachhub/internal/app/features/admin"
	formstore "github.com/dalemusser/coachhub/internal/app/store/forms"
	"github.com/dalemusser/coachhub/internal/app/store/invitations"
	userstore "github.com/dalemusser/coachhub/internal/app/store/users"
	"github.com/dalemusser/coachhub/internal/app/system/indexes"
	"github.com/dalemusser/coachhub/internal/app/system/mailer"
	"github.com/dalemusser/coachhub/internal/domain/models"
	"github.com/dalemusser/coachhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (f *fakeSender) Send(_ context.Context, e mailer.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

type memFiles struct {
	mu      sync.Mutex
	deleted []string
}

func (m *memFiles) Put(_ context.Context, key string, _ io.ReadSeeker, _ int64, _ string) (string, error) {
	return "/files/" + key, nil
}

func (m *memFiles) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	return nil
}

type env struct {
	db      *mongo.Database
	h       *admin.Handler
	fx      *testutil.Fixtures
	mail    *fakeSender
	files   *memFiles
	admin   models.User
	invites *invitations.Store
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	e := &env{
		db:      db,
		fx:      testutil.NewFixtures(t, db),
		mail:    &fakeSender{},
		files:   &memFiles{},
		invites: invitations.New(db, 0),
	}
	e.h = admin.NewHandler(db, admin.Deps{
		Invites:  e.invites,
		Files:    e.files,
		Mail:     e.mail,
		SiteName: "CoachHub",
	}, zap.NewNop())
	e.admin = e.fx.CreateAdmin(ctx, "root@example.com")
	return e
}

func (e *env) do(fn http.HandlerFunc, req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	fn(rec, testutil.WithUser(req, e.admin))
	return rec
}

func assignReq(agentID, traineeID string) *http.Request {
	req := testutil.NewFormRequest("POST", "/assign_agent/"+agentID, url.Values{"trainee_id": {traineeID}})
	return testutil.WithChiURLParam(req, "agentId", agentID)
}

func TestAssign_Success(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := e.fx.CreateAgent(ctx, "Kofi", "kofi@example.com")
	trainee := e.fx.CreateTrainee(ctx, "Ama", "ama@example.com")

	rec := e.do(e.h.HandleAssign, assignReq(agent.ID.Hex(), trainee.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	got, err := userstore.New(e.db).GetByID(ctx, trainee.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.AgentID == nil || *got.AgentID != agent.ID {
		t.Errorf("trainee agent_id = %v, want %s", got.AgentID, agent.ID.Hex())
	}
}

func TestAssign_Errors(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := e.fx.CreateAgent(ctx, "Kofi", "kofi@example.com")
	other := e.fx.CreateAgent(ctx, "Yaw", "yaw@example.com")
	linked := e.fx.CreateTrainee(ctx, "Esi", "esi@example.com")
	e.fx.LinkTrainee(ctx, other, linked)
	free := e.fx.CreateTrainee(ctx, "Ama", "ama@example.com")

	tests := []struct {
		name    string
		agentID string
		trainee string
		want    int
	}{
		{"malformed agent id", "nope", free.ID.Hex(), http.StatusUnprocessableEntity},
		{"malformed trainee id", agent.ID.Hex(), "nope", http.StatusUnprocessableEntity},
		{"agent is a trainee", free.ID.Hex(), linked.ID.Hex(), http.StatusNotFound},
		{"trainee is an agent", agent.ID.Hex(), other.ID.Hex(), http.StatusNotFound},
		{"already assigned", agent.ID.Hex(), linked.ID.Hex(), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(e.h.HandleAssign, assignReq(tt.agentID, tt.trainee))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestAssign_Capacity(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := e.fx.CreateAgent(ctx, "Kofi", "kofi@example.com")
	for i := 0; i < models.MaxTraineesPerAgent; i++ {
		tr := e.fx.CreateTrainee(ctx, "T", "t"+string(rune('a'+i))+"@example.com")
		rec := e.do(e.h.HandleAssign, assignReq(agent.ID.Hex(), tr.ID.Hex()))
		rec.AssertStatus(t, http.StatusOK)
	}

	extra := e.fx.CreateTrainee(ctx, "Extra", "extra@example.com")
	rec := e.do(e.h.HandleAssign, assignReq(agent.ID.Hex(), extra.ID.Hex()))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestUnassign(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := e.fx.CreateAgent(ctx, "Kofi", "kofi@example.com")
	trainee := e.fx.CreateTrainee(ctx, "Ama", "ama@example.com")
	e.fx.LinkTrainee(ctx, agent, trainee)

	req := testutil.NewFormRequest("POST", "/unassign_agent/x", url.Values{"trainee_id": {trainee.ID.Hex()}})
	req = testutil.WithChiURLParam(req, "agentId", agent.ID.Hex())
	e.do(e.h.HandleUnassign, req).AssertStatus(t, http.StatusOK)

	req = testutil.NewFormRequest("POST", "/unassign_agent/x", url.Values{"trainee_id": {trainee.ID.Hex()}})
	req = testutil.WithChiURLParam(req, "agentId", agent.ID.Hex())
	e.do(e.h.HandleUnassign, req).AssertStatus(t, http.StatusNotFound)
}

func inviteReq(formID string) *http.Request {
	req := testutil.NewFormRequest("POST", "/forms/"+formID+"/invite", url.Values{})
	return testutil.WithChiURLParam(req, "id", formID)
}

func TestInvite_SendsCode(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	form := e.fx.CreateForm(ctx, models.RoleTrainee, "Ama Mensah", "ama@example.com")

	rec := e.do(e.h.HandleInvite, inviteReq(form.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	if len(e.mail.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(e.mail.sent))
	}
	msg := e.mail.sent[0]
	if msg.To != "ama@example.com" {
		t.Errorf("To = %q, want ama@example.com", msg.To)
	}

	n, err := e.db.Collection("invitations").CountDocuments(ctx, bson.M{"form_id": form.ID})
	if err != nil {
		t.Fatalf("count invitations: %v", err)
	}
	if n != 1 {
		t.Errorf("invitations for form = %d, want 1", n)
	}

	got, err := formstore.New(e.db).GetByID(ctx, form.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.InvitedAt == nil {
		t.Error("expected form to be marked invited")
	}
}

func TestInvite_MailFailureWithdrawsCode(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.mail.err = errors.New("smtp down")
	form := e.fx.CreateForm(ctx, models.RoleAgent, "Kofi Boateng", "kofi@example.com")

	rec := e.do(e.h.HandleInvite, inviteReq(form.ID.Hex()))
	rec.AssertStatus(t, http.StatusBadGateway)

	n, err := e.db.Collection("invitations").CountDocuments(ctx, bson.M{"form_id": form.ID})
	if err != nil {
		t.Fatalf("count invitations: %v", err)
	}
	if n != 0 {
		t.Errorf("invitations for form = %d, want 0", n)
	}
}

func TestSendVerificationCode(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fx.CreateForm(ctx, models.RoleTrainee, "Ama Mensah", "ama@example.com")

	req := testutil.NewFormRequest("POST", "/send_verification_code", url.Values{"email": {" AMA@example.com "}})
	e.do(e.h.HandleSendVerificationCode, req).AssertStatus(t, http.StatusOK)

	req = testutil.NewFormRequest("POST", "/send_verification_code", url.Values{"email": {"nobody@example.com"}})
	e.do(e.h.HandleSendVerificationCode, req).AssertStatus(t, http.StatusNotFound)

	req = testutil.NewFormRequest("POST", "/send_verification_code", url.Values{"email": {"not-an-email"}})
	e.do(e.h.HandleSendVerificationCode, req).AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestDeleteForm_RemovesInvitationAndFiles(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	form := e.fx.CreateForm(ctx, models.RoleTrainee, "Ama Mensah", "ama@example.com")
	if _, err := e.invites.Issue(ctx, form); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	req := testutil.WithChiURLParam(testutil.NewFormRequest("DELETE", "/forms/x", nil), "id", form.ID.Hex())
	e.do(e.h.HandleDeleteForm, req).AssertStatus(t, http.StatusOK)

	n, _ := e.db.Collection("invitations").CountDocuments(ctx, bson.M{"form_id": form.ID})
	if n != 0 {
		t.Errorf("invitations = %d, want 0", n)
	}
	if len(e.files.deleted) != 1 || e.files.deleted[0] != "forms/card.pdf" {
		t.Errorf("deleted files = %v, want [forms/card.pdf]", e.files.deleted)
	}

	req = testutil.WithChiURLParam(testutil.NewFormRequest("DELETE", "/forms/x", nil), "id", form.ID.Hex())
	e.do(e.h.HandleDeleteForm, req).AssertStatus(t, http.StatusNotFound)
}

func TestDeleteUser_CascadesAgent(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := e.fx.CreateAgent(ctx, "Kofi", "kofi@example.com")
	trainee := e.fx.CreateTrainee(ctx, "Ama", "ama@example.com")
	e.fx.LinkTrainee(ctx, agent, trainee)
	e.fx.CreateResource(ctx, agent.ID, "Interview basics")
	e.fx.CreateTask(ctx, agent.ID, trainee.ID, "Write a CV")

	req := testutil.WithChiURLParam(testutil.NewFormRequest("DELETE", "/users/x", nil), "id", agent.ID.Hex())
	e.do(e.h.HandleDeleteUser, req).AssertStatus(t, http.StatusOK)

	users := userstore.New(e.db)
	if _, err := users.GetByID(ctx, agent.ID); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("agent lookup err = %v, want ErrNotFound", err)
	}
	got, err := users.GetByID(ctx, trainee.ID)
	if err != nil {
		t.Fatalf("GetByID trainee failed: %v", err)
	}
	if got.AgentID != nil {
		t.Errorf("trainee still linked to %s", got.AgentID.Hex())
	}
	for _, coll := range []string{"resources", "tasks"} {
		n, err := e.db.Collection(coll).CountDocuments(ctx, bson.M{})
		if err != nil {
			t.Fatalf("count %s: %v", coll, err)
		}
		if n != 0 {
			t.Errorf("%s remaining = %d, want 0", coll, n)
		}
	}
}

func TestDeleteUser_RejectsSelfAndMissing(t *testing.T) {
	e := newEnv(t)

	req := testutil.WithChiURLParam(testutil.NewFormRequest("DELETE", "/users/x", nil), "id", e.admin.ID.Hex())
	e.do(e.h.HandleDeleteUser, req).AssertStatus(t, http.StatusForbidden)

	req = testutil.WithChiURLParam(testutil.NewFormRequest("DELETE", "/users/x", nil), "id", "64b7f0c2a1b2c3d4e5f60718")
	e.do(e.h.HandleDeleteUser, req).AssertStatus(t, http.StatusNotFound)

	req = testutil.WithChiURLParam(testutil.NewFormRequest("DELETE", "/users/x", nil), "id", "zzz")
	e.do(e.h.HandleDeleteUser, req).AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestServeUsers_FiltersByRole(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fx.CreateAgent(ctx, "Kofi", "kofi@example.com")
	e.fx.CreateTrainee(ctx, "Ama", "ama@example.com")

	rec := e.do(e.h.ServeUsers, testutil.NewFormRequest("GET", "/users?role=agent", nil))
	rec.AssertStatus(t, http.StatusOK)

	var body struct {
		Users []models.User `json:"users"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Users) != 1 || body.Users[0].Email != "kofi@example.com" {
		t.Errorf("users = %+v, want only kofi", body.Users)
	}

	rec = e.do(e.h.ServeUsers, testutil.NewFormRequest("GET", "/users?role=boss", nil))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestServeAudit(t *testing.T) {
	e := newEnv(t)

	rec := e.do(e.h.ServeAudit, testutil.NewFormRequest("GET", "/audit?limit=10", nil))
	rec.AssertStatus(t, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"total"`) {
		t.Errorf("body missing total: %s", rec.Body.String())
	}

	rec = e.do(e.h.ServeAudit, testutil.NewFormRequest("GET", "/audit?since=yesterday", nil))
	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}
