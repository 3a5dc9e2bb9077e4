package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protectedEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := r.Context().Value("userID").(string)
		w.Write([]byte(userID))
	})
}

func TestJWTMiddlewareBearerHeader(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"userID": "abc123",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	JWTMiddleware(testSecret)(protectedEcho()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", rec.Body.String())
}

func TestJWTMiddlewareCookieFallback(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"userID": "abc123",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	rec := httptest.NewRecorder()

	JWTMiddleware(testSecret)(protectedEcho()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc123", rec.Body.String())
}

func TestJWTMiddlewareRejections(t *testing.T) {
	cases := map[string]func(*http.Request){
		"no token": func(r *http.Request) {},
		"malformed token": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not.a.token")
		},
		"wrong secret": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", jwt.MapClaims{
				"userID": "abc123",
				"exp":    time.Now().Add(time.Hour).Unix(),
			}))
		},
		"expired": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{
				"userID": "abc123",
				"exp":    time.Now().Add(-time.Hour).Unix(),
			}))
		},
		"missing userID claim": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}))
		},
	}

	for name, prepare := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			prepare(req)
			rec := httptest.NewRecorder()

			JWTMiddleware(testSecret)(protectedEcho()).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestParseUserID(t *testing.T) {
	token := signToken(t, testSecret, jwt.MapClaims{
		"userID": "abc123",
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	userID, err := ParseUserID(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "abc123", userID)

	_, err = ParseUserID(token, "wrong")
	assert.Error(t, err)
}
