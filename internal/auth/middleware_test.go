package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NUbem000/NubemERP/internal/shared"
)

func TestRequireAuth(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Minute)
	user := &User{ID: 42, Email: "ana@test.local", Role: "admin"}
	signed, err := tokens.Sign(user, time.Now())
	require.NoError(t, err)

	var got *shared.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = shared.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(tokens)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, got)
	require.Equal(t, int64(42), got.UserID)
	require.Equal(t, "admin", got.Role)
}

func TestRequireAuthRejects(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Minute)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	})
	handler := RequireAuth(tokens)(next)

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"garbage token":  "Bearer not-a-jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			require.Equal(t, http.StatusUnauthorized, res.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole("admin")(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), &shared.Identity{UserID: 1, Role: "user"}))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), &shared.Identity{UserID: 1, Role: "admin"}))
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
}
