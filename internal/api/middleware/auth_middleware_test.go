package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestVerifyToken(t *testing.T) {
	valid := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "viewer-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	sub, err := VerifyToken(valid, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "viewer-1", sub)

	sub, err = VerifyToken("Bearer "+valid, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "viewer-1", sub)
}

func TestVerifyTokenRejects(t *testing.T) {
	expired := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{
		"sub": "viewer-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "viewer-1"})
	noSub := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"name": "viewer"})

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMissingToken},
		{"bearer only", "Bearer ", ErrMissingToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"expired", expired, ErrInvalidToken},
		{"wrong key", wrongKey, ErrInvalidToken},
		{"missing sub", noSub, ErrMissingSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyToken(tt.token, testSecret)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	var gotID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetSpectatorIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("anonymous when no secret", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AuthMiddleware("")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/game/state", nil))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, strings.HasPrefix(gotID, "anonymous-"))
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		AuthMiddleware(testSecret)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/game/state", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Authorization header is required")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/game/state", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		AuthMiddleware(testSecret)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "viewer-2"})
		req := httptest.NewRequest(http.MethodGet, "/api/game/state", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		AuthMiddleware(testSecret)(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "viewer-2", gotID)
	})
}

func TestCORSHandler(t *testing.T) {
	handler := CORSHandler([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/game/state", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/game/state", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
