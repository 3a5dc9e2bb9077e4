package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"citypulse/hub"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWSConnectRequiresSignedToken(t *testing.T) {
	h := NewWSHandler(nil, "test-secret")

	rec := httptest.NewRecorder()
	h.Connect(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// a bare user id is not an identity
	rec = httptest.NewRecorder()
	h.Connect(rec, httptest.NewRequest(http.MethodGet, "/ws?userId="+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Connect(rec, httptest.NewRequest(http.MethodGet, "/ws?token=not.a.token", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWSConnectAcceptsSignedToken(t *testing.T) {
	presence := hub.NewHub()
	defer presence.Stop()
	h := NewWSHandler(presence, "test-secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userID": primitive.NewObjectID().Hex(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	// auth passes; the upgrade then fails because this is not a
	// websocket handshake
	rec := httptest.NewRecorder()
	h.Connect(rec, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
