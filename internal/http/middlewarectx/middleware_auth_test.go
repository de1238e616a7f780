package middlewarectx_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexserve/lexserve-backend/internal/http/middlewarectx"
	"github.com/lexserve/lexserve-backend/internal/lib/jwt"
	"github.com/lexserve/lexserve-backend/internal/models"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newMaker() jwt.Maker {
	return jwt.NewJWTMaker("test_secret_key", 15*time.Minute)
}

func TestJWTMiddleware(t *testing.T) {
	maker := newMaker()
	logger := newNoopLogger()

	validToken, err := maker.GenerateToken("testuser", "user", "uid-1")
	require.NoError(t, err)

	expiredMaker := jwt.NewJWTMaker("test_secret_key", -time.Hour)
	expiredToken, err := expiredMaker.GenerateToken("testuser", "user", "uid-1")
	require.NoError(t, err)

	badRoleToken, err := maker.GenerateToken("testuser", "moderator", "uid-1")
	require.NoError(t, err)

	handlerCalled := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		principal, ok := middlewarectx.PrincipalFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, "testuser", principal.Username)
		assert.Equal(t, "uid-1", principal.UserUID)
		assert.Equal(t, models.RoleUser, principal.Role)
		w.WriteHeader(http.StatusOK)
	})

	mw := middlewarectx.JWTMiddleware(maker, logger)(nextHandler)

	tests := []struct {
		name           string
		authHeader     string
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "missing Authorization header",
			authHeader:     "",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "invalid Authorization header prefix",
			authHeader:     "Basic sometoken",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "malformed token",
			authHeader:     "Bearer not.a.token",
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "expired token",
			authHeader:     "Bearer " + expiredToken,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "unknown role in token",
			authHeader:     "Bearer " + badRoleToken,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer " + validToken,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false

			req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
		})
	}
}

func TestOptionalJWTMiddleware(t *testing.T) {
	maker := newMaker()
	logger := newNoopLogger()

	validToken, err := maker.GenerateToken("testuser", "user", "uid-1")
	require.NoError(t, err)

	var gotPrincipal middlewarectx.Principal
	var hadPrincipal bool
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrincipal, hadPrincipal = middlewarectx.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	mw := middlewarectx.OptionalJWTMiddleware(maker, logger)(nextHandler)

	tests := []struct {
		name          string
		target        string
		authHeader    string
		wantPrincipal bool
		wantUID       string
	}{
		{
			name:          "no token continues anonymously",
			target:        "/stream",
			wantPrincipal: false,
		},
		{
			name:          "invalid token continues anonymously",
			target:        "/stream?token=garbage",
			wantPrincipal: false,
		},
		{
			name:          "valid token in query",
			target:        "/stream?token=" + validToken,
			wantPrincipal: true,
			wantUID:       "uid-1",
		},
		{
			name:          "valid token in header",
			target:        "/stream",
			authHeader:    "Bearer " + validToken,
			wantPrincipal: true,
			wantUID:       "uid-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPrincipal, hadPrincipal = middlewarectx.Principal{}, false

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantPrincipal, hadPrincipal)
			if tt.wantPrincipal {
				assert.Equal(t, tt.wantUID, gotPrincipal.UserUID)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	logger := newNoopLogger()

	handlerCalled := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	})

	mw := middlewarectx.RequireRole(logger, models.RoleAdmin, models.RoleSuperAdmin)(nextHandler)

	tests := []struct {
		name           string
		principal      *middlewarectx.Principal
		wantStatusCode int
		wantCalled     bool
	}{
		{
			name:           "no principal",
			principal:      nil,
			wantStatusCode: http.StatusUnauthorized,
			wantCalled:     false,
		},
		{
			name:           "user role denied",
			principal:      &middlewarectx.Principal{Username: "u", Role: models.RoleUser},
			wantStatusCode: http.StatusForbidden,
			wantCalled:     false,
		},
		{
			name:           "staff role denied",
			principal:      &middlewarectx.Principal{Username: "s", Role: models.RoleStaff},
			wantStatusCode: http.StatusForbidden,
			wantCalled:     false,
		},
		{
			name:           "admin allowed",
			principal:      &middlewarectx.Principal{Username: "a", Role: models.RoleAdmin},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "super admin allowed",
			principal:      &middlewarectx.Principal{Username: "sa", Role: models.RoleSuperAdmin},
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled = false

			req := httptest.NewRequest(http.MethodPatch, "/admin/requests/SR-1/status", nil)
			if tt.principal != nil {
				req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), *tt.principal))
			}
			rec := httptest.NewRecorder()

			mw.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
		})
	}
}
