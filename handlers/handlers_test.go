package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCurrentUserID(t *testing.T) {
	id := primitive.NewObjectID()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), "userID", id.Hex()))

	got, err := currentUserID(req)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// no identity on the context
	_, err = currentUserID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Error(t, err)

	// identity that is not an object id
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), "userID", "bogus"))
	_, err = currentUserID(req)
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=2&limit=10", nil)
	skip, limit := pagination(req, 20)
	assert.Equal(t, int64(10), skip)
	assert.Equal(t, int64(10), limit)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	skip, limit = pagination(req, 20)
	assert.Equal(t, int64(0), skip)
	assert.Equal(t, int64(20), limit)

	req = httptest.NewRequest(http.MethodGet, "/?page=abc&limit=xyz", nil)
	skip, limit = pagination(req, 20)
	assert.Equal(t, int64(0), skip)
	assert.Equal(t, int64(20), limit)
}

func TestPathID(t *testing.T) {
	id := primitive.NewObjectID()
	got, err := pathID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = pathID("nope")
	assert.Error(t, err)
}
