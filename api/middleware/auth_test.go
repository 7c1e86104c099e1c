package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/provenly/backend/pkg/auth"
	"github.com/provenly/backend/pkg/config"
	"github.com/provenly/backend/pkg/enums"
)

type stubSessionChecker struct {
	active map[string]bool
	err    error
}

func (s *stubSessionChecker) HasSession(_ context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.active[accessID], nil
}

var authTestJWTConfig = config.JWTConfig{
	Secret:            "auth-middleware-test-secret",
	Issuer:            "provenly-test",
	ExpirationMinutes: 15,
}

func mintTestToken(t *testing.T, actorID uuid.UUID, role enums.ParticipantRole, jti string) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(authTestJWTConfig, time.Now(), pkgauth.AccessTokenPayload{
		ActorID: actorID,
		Role:    role,
		JTI:     jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestAuthSeedsActorContext(t *testing.T) {
	actorID := uuid.New()
	accessID := uuid.NewString()
	checker := &stubSessionChecker{active: map[string]bool{accessID: true}}
	mw := Auth(authTestJWTConfig, checker, nil)

	var gotActor uuid.UUID
	var gotRole, gotAccess string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = ActorIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		gotAccess = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	req.Header.Set("Authorization", "Bearer "+mintTestToken(t, actorID, enums.ParticipantRoleAdmin, accessID))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if gotActor != actorID {
		t.Fatalf("expected actor %s got %s", actorID, gotActor)
	}
	if gotRole != string(enums.ParticipantRoleAdmin) {
		t.Fatalf("expected admin role got %q", gotRole)
	}
	if gotAccess != accessID {
		t.Fatalf("expected access id %s got %s", accessID, gotAccess)
	}
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	actorID := uuid.New()
	checker := &stubSessionChecker{active: map[string]bool{}}
	mw := Auth(authTestJWTConfig, checker, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run on rejected credentials")
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
		{"revoked session", "Bearer " + mintTestToken(t, actorID, enums.ParticipantRoleMember, uuid.NewString())},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", tt.name, resp.Code)
		}
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	actorID := uuid.New()
	accessID := uuid.NewString()
	token, err := pkgauth.MintAccessToken(authTestJWTConfig, time.Now().Add(-time.Hour), pkgauth.AccessTokenPayload{
		ActorID: actorID,
		Role:    enums.ParticipantRoleMember,
		JTI:     accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	checker := &stubSessionChecker{active: map[string]bool{accessID: true}}
	mw := Auth(authTestJWTConfig, checker, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler must not run with an expired token")
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
