package users_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse-api/gatehouse/internal/rbac"
	"github.com/gatehouse-api/gatehouse/internal/users"
	_ "github.com/gatehouse-api/gatehouse/testing"
)

type stubIssuer struct{}

func (stubIssuer) IssueToken(subjectID int64, ttl time.Duration) (string, error) {
	return "token-for-" + string(rune('0'+subjectID)), nil
}

type adminActionRecorder struct {
	actions []string
	targets []int64
}

func (r *adminActionRecorder) AdminAction(ctx context.Context, actorID int64, action string, targetID int64) {
	r.actions = append(r.actions, action)
	r.targets = append(r.targets, targetID)
}

type userFixture struct {
	service  *users.Service
	repo     *stubUserRepo
	recorder *adminActionRecorder
	router   http.Handler
}

func newUserRouter(t *testing.T) userFixture {
	t.Helper()
	service, repo := newTestService()
	recorder := &adminActionRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := users.NewHandler(logger, service, stubIssuer{}, recorder, rbac.Middleware{}, time.Hour)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return userFixture{service: service, repo: repo, recorder: recorder, router: r}
}

type envelope struct {
	Msg    string                   `json:"msg"`
	Error  string                   `json:"error"`
	Result []map[string]interface{} `json:"result"`
}

func decodeEnvelope(t *testing.T, res *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(res.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func asPrincipal(req *http.Request, principal rbac.Principal) *http.Request {
	return req.WithContext(rbac.ContextWithPrincipal(req.Context(), principal))
}

func adminPrincipal(id int64) rbac.Principal {
	return rbac.Authenticated(rbac.Subject{
		ID:       id,
		Username: "admin",
		Role:     rbac.Role{ID: 2, Name: "admin", Permissions: rbac.PermAll},
	})
}

func memberPrincipal(id int64) rbac.Principal {
	return rbac.Authenticated(rbac.Subject{
		ID:       id,
		Username: "alice",
		Role:     rbac.Role{ID: 1, Name: "user", Permissions: rbac.PermComment | rbac.PermWriteArticles},
	})
}

func TestRegisterReturnsToken(t *testing.T) {
	fx := newUserRouter(t)

	body := `{"username":"alice","email":"alice@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	env := decodeEnvelope(t, res)
	if env.Msg != "ok" || len(env.Result) != 1 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	result := env.Result[0]
	if result["username"] != "alice" {
		t.Fatalf("expected alice in result, got %v", result)
	}
	if token, _ := result["token"].(string); token == "" {
		t.Fatal("expected token in registration result")
	}
}

func TestRegisterMissingFields(t *testing.T) {
	fx := newUserRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"alice"}`))
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if env := decodeEnvelope(t, res); env.Msg != "no" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	fx := newUserRouter(t)

	body := `{"username":"alice","email":"alice@example.com","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	fx.router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(body))
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	if res.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", res.Code)
	}
}

func TestGetUser(t *testing.T) {
	fx := newUserRouter(t)
	user, err := fx.service.CreatePrincipal(context.Background(), "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("create principal: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/1", nil)
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	result := decodeEnvelope(t, res).Result[0]
	if result["email"] != user.Email {
		t.Fatalf("unexpected result: %v", result)
	}
	if _, leaked := result["token"]; leaked {
		t.Fatal("token must not appear on plain lookups")
	}
}

func TestGetUserNotFound(t *testing.T) {
	fx := newUserRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUpdateProfileRequiresSubject(t *testing.T) {
	fx := newUserRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/users", strings.NewReader(`{"email":"new@example.com"}`))
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestUpdateProfile(t *testing.T) {
	fx := newUserRouter(t)
	user, err := fx.service.CreatePrincipal(context.Background(), "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("create principal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/users", strings.NewReader(`{"email":"new@example.com"}`))
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, asPrincipal(req, memberPrincipal(user.ID)))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	stored, err := fx.repo.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.Email != "new@example.com" {
		t.Fatalf("email not updated: %s", stored.Email)
	}
}

func TestChangePasswordEndpoint(t *testing.T) {
	fx := newUserRouter(t)
	user, err := fx.service.CreatePrincipal(context.Background(), "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("create principal: %v", err)
	}

	body := `{"oldpassword":"wrong","newpassword":"secret2"}`
	req := httptest.NewRequest(http.MethodPut, "/users/password", strings.NewReader(body))
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, asPrincipal(req, memberPrincipal(user.ID)))
	if res.Code != http.StatusForbidden {
		t.Fatalf("wrong old password: expected 403, got %d", res.Code)
	}

	body = `{"oldpassword":"secret1","newpassword":"secret2"}`
	req = httptest.NewRequest(http.MethodPut, "/users/password", strings.NewReader(body))
	res = httptest.NewRecorder()
	fx.router.ServeHTTP(res, asPrincipal(req, memberPrincipal(user.ID)))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
}

func TestListUsersRequiresAdmin(t *testing.T) {
	fx := newUserRouter(t)

	// Anonymous.
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, req)
	if res.Code != http.StatusForbidden {
		t.Fatalf("anonymous: expected 403, got %d", res.Code)
	}

	// Authenticated but not admin.
	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	res = httptest.NewRecorder()
	fx.router.ServeHTTP(res, asPrincipal(req, memberPrincipal(1)))
	if res.Code != http.StatusForbidden {
		t.Fatalf("member: expected 403, got %d", res.Code)
	}
	if env := decodeEnvelope(t, res); env.Error != "forbidden" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestListUsersAsAdmin(t *testing.T) {
	fx := newUserRouter(t)
	for _, username := range []string{"alice", "bob"} {
		if _, err := fx.service.CreatePrincipal(context.Background(), username, username+"@example.com", "secret1"); err != nil {
			t.Fatalf("create principal: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, asPrincipal(req, adminPrincipal(99)))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if env := decodeEnvelope(t, res); len(env.Result) != 2 {
		t.Fatalf("expected 2 users, got %d", len(env.Result))
	}
}

func TestAssignRoleRecordsAudit(t *testing.T) {
	fx := newUserRouter(t)
	user, err := fx.service.CreatePrincipal(context.Background(), "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("create principal: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/users/1/role", strings.NewReader(`{"role":"admin"}`))
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, asPrincipal(req, adminPrincipal(99)))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	stored, err := fx.repo.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.RoleID != 2 {
		t.Fatalf("role not reassigned: %d", stored.RoleID)
	}
	if len(fx.recorder.actions) != 1 || fx.recorder.actions[0] != "user.role_assign" {
		t.Fatalf("expected audit record, got %v", fx.recorder.actions)
	}
}

func TestDeleteUserAsAdmin(t *testing.T) {
	fx := newUserRouter(t)
	user, err := fx.service.CreatePrincipal(context.Background(), "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("create principal: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/users/1", nil)
	res := httptest.NewRecorder()
	fx.router.ServeHTTP(res, asPrincipal(req, adminPrincipal(99)))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if _, err := fx.repo.GetUser(context.Background(), user.ID); err == nil {
		t.Fatal("user should be gone")
	}
	if len(fx.recorder.targets) != 1 || fx.recorder.targets[0] != user.ID {
		t.Fatalf("expected audit record for target %d, got %v", user.ID, fx.recorder.targets)
	}
}
