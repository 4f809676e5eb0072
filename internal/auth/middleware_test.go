package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatehouse-api/gatehouse/internal/auth"
	"github.com/gatehouse-api/gatehouse/internal/rbac"
	_ "github.com/gatehouse-api/gatehouse/testing"
)

func newGate(t *testing.T, accounts ...auth.Account) (*auth.Service, func(http.Handler) http.Handler) {
	t.Helper()
	service := auth.NewService(&stubStore{accounts: accounts}, auth.NewCodec([]byte("test-secret")), nil, nil)
	return service, auth.Gate(service, nil, nil)
}

func capturePrincipal(into *rbac.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*into = rbac.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestGateNoCredentialBindsAnonymous(t *testing.T) {
	_, gate := newGate(t)

	var principal rbac.Principal
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil)
	res := httptest.NewRecorder()
	gate(capturePrincipal(&principal)).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !principal.IsAnonymous() {
		t.Fatal("expected anonymous principal")
	}
}

func TestGateBasicAuth(t *testing.T) {
	alice := mustAccount(t, 1, "alice", "alice@example.com", "secret1", rbac.PermComment)
	_, gate := newGate(t, alice)

	var principal rbac.Principal
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil)
	req.SetBasicAuth("alice", "secret1")
	res := httptest.NewRecorder()
	gate(capturePrincipal(&principal)).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	subject, ok := principal.Subject()
	if !ok || subject.Username != "alice" {
		t.Fatalf("expected alice bound, got %+v", principal)
	}
}

func TestGateBearerToken(t *testing.T) {
	alice := mustAccount(t, 1, "alice", "alice@example.com", "secret1", rbac.PermComment)
	service, gate := newGate(t, alice)

	token, err := service.IssueToken(1, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	for _, scheme := range []string{"Bearer", "Smart"} {
		var principal rbac.Principal
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil)
		req.Header.Set("Authorization", scheme+" "+token)
		res := httptest.NewRecorder()
		gate(capturePrincipal(&principal)).ServeHTTP(res, req)

		if res.Code != http.StatusOK {
			t.Fatalf("scheme %s: expected 200, got %d", scheme, res.Code)
		}
		if subject, ok := principal.Subject(); !ok || subject.ID != 1 {
			t.Fatalf("scheme %s: expected alice bound", scheme)
		}
	}
}

func TestGateRejectsBadCredential(t *testing.T) {
	alice := mustAccount(t, 1, "alice", "alice@example.com", "secret1", rbac.PermComment)
	_, gate := newGate(t, alice)

	handlerRan := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil)
	req.SetBasicAuth("alice", "wrong")
	res := httptest.NewRecorder()
	gate(next).ServeHTTP(res, req)

	if handlerRan {
		t.Fatal("handler body must not execute after rejection")
	}
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["msg"] != "no" || body["error"] != "unauthorized" {
		t.Fatalf("unexpected rejection payload: %v", body)
	}
}

func TestGateExpiredTokenRejected(t *testing.T) {
	alice := mustAccount(t, 1, "alice", "alice@example.com", "secret1", rbac.PermComment)
	service, gate := newGate(t, alice)

	token, err := service.IssueToken(1, time.Millisecond)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(res, req)

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
}

func TestGateConcurrentRequestsDoNotShareState(t *testing.T) {
	alice := mustAccount(t, 1, "alice", "alice@example.com", "secret1", rbac.PermComment)
	service, gate := newGate(t, alice)

	token, err := service.IssueToken(1, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	handler := gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := rbac.PrincipalFromContext(r.Context())
		authed := r.Header.Get("Authorization") != ""
		if authed && principal.IsAnonymous() {
			t.Error("authenticated request bound to anonymous")
		}
		if !authed && !principal.IsAnonymous() {
			t.Error("anonymous request bound to a subject")
		}
	}))

	done := make(chan struct{})
	for i := 0; i < 20; i++ {
		go func(withToken bool) {
			defer func() { done <- struct{}{} }()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/1", nil)
			if withToken {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(context.Background()))
		}(i%2 == 0)
	}
	for i := 0; i < 20; i++ {
		<-done
	}
}
