package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prismai/prismai/internal/auth"
	"github.com/prismai/prismai/internal/model"
	"github.com/prismai/prismai/internal/repository"
	"github.com/prismai/prismai/internal/token"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserLoader serves users from a map.
type fakeUserLoader struct {
	users map[string]*model.User
	err   error
}

func (f *fakeUserLoader) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func newAuthHandler(t *testing.T, users *fakeUserLoader, maker *token.Maker) http.Handler {
	t.Helper()
	cfg := AuthConfig{
		Logger: testLogger(),
		Tokens: maker,
		Users:  users,
	}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx := auth.AuthFromContext(r.Context())
		if authCtx == nil {
			t.Error("auth context missing in inner handler")
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(authCtx)
	})

	return Auth(cfg)(inner)
}

func TestAuth_ValidToken(t *testing.T) {
	maker := token.NewMaker("secret", 30*time.Minute, time.Hour)
	users := &fakeUserLoader{users: map[string]*model.User{
		"u1": {ID: "u1", Email: "a@example.com", Role: model.RoleUser, Tier: model.TierFree, IsActive: true},
	}}
	handler := newAuthHandler(t, users, maker)

	tokenStr, err := maker.IssueAccessToken("u1", model.TierPro)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/generate-blog", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got model.AuthContext
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode auth context: %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("user id = %s, want u1", got.UserID)
	}
	// Tier must come from the token claim, not the stored user row.
	if got.Tier != model.TierPro {
		t.Errorf("tier = %s, want pro (token claim)", got.Tier)
	}
	if got.Role != model.RoleUser {
		t.Errorf("role = %s, want user (store row)", got.Role)
	}
}

func TestAuth_RejectionsAreIndistinguishable(t *testing.T) {
	maker := token.NewMaker("secret", 30*time.Minute, time.Hour)
	expiredMaker := token.NewMaker("secret", -time.Minute, time.Hour)
	wrongMaker := token.NewMaker("other-secret", 30*time.Minute, time.Hour)

	users := &fakeUserLoader{users: map[string]*model.User{
		"active":   {ID: "active", Role: model.RoleUser, Tier: model.TierFree, IsActive: true},
		"inactive": {ID: "inactive", Role: model.RoleUser, Tier: model.TierFree, IsActive: false},
	}}
	handler := Auth(AuthConfig{Logger: testLogger(), Tokens: maker, Users: users})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("inner handler should not run")
		}),
	)

	mustToken := func(m *token.Maker, sub string) string {
		s, err := m.IssueAccessToken(sub, model.TierFree)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		return s
	}

	testCases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer token", "Basic abc123"},
		{"garbage token", "Bearer not-a-token"},
		{"expired token", "Bearer " + mustToken(expiredMaker, "active")},
		{"tampered signature", "Bearer " + mustToken(wrongMaker, "active")},
		{"unknown user", "Bearer " + mustToken(maker, "ghost")},
		{"inactive user", "Bearer " + mustToken(maker, "inactive")},
	}

	var bodies []string
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			bodies = append(bodies, rec.Body.String())
		})
	}

	// Every rejection must carry the identical body so callers cannot
	// probe which case occurred.
	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("rejection body %d differs from body 0: %q vs %q", i, bodies[i], bodies[0])
		}
	}
}

func TestAuth_StoreFailureIsNot401(t *testing.T) {
	maker := token.NewMaker("secret", 30*time.Minute, time.Hour)
	users := &fakeUserLoader{err: context.DeadlineExceeded}
	handler := Auth(AuthConfig{Logger: testLogger(), Tokens: maker, Users: users})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("inner handler should not run")
		}),
	)

	tokenStr, err := maker.IssueAccessToken("u1", model.TierFree)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenStr)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 for store failure", rec.Code)
	}
}
