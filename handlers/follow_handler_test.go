package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"citypulse/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func statusRequest(targetID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/follow/"+targetID+"/status", nil)
	req = req.WithContext(context.WithValue(req.Context(), "userID", primitive.NewObjectID().Hex()))
	return mux.SetURLVars(req, map[string]string{"userId": targetID})
}

func TestFollowStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("following", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "citypulse.follows", mtest.FirstBatch,
			bson.D{{Key: "n", Value: int64(1)}}))

		h := NewFollowHandler(services.NewFollowService(mt.Coll, nil, nil, nil))
		rec := httptest.NewRecorder()
		h.Status(rec, statusRequest(primitive.NewObjectID().Hex()))

		require.Equal(mt, http.StatusOK, rec.Code)
		var body map[string]bool
		require.NoError(mt, json.NewDecoder(rec.Body).Decode(&body))
		assert.True(mt, body["isFollowing"])
	})

	mt.Run("not following", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "citypulse.follows", mtest.FirstBatch))

		h := NewFollowHandler(services.NewFollowService(mt.Coll, nil, nil, nil))
		rec := httptest.NewRecorder()
		h.Status(rec, statusRequest(primitive.NewObjectID().Hex()))

		require.Equal(mt, http.StatusOK, rec.Code)
		var body map[string]bool
		require.NoError(mt, json.NewDecoder(rec.Body).Decode(&body))
		assert.False(mt, body["isFollowing"])
	})
}

func TestFollowStatusRejectsBadID(t *testing.T) {
	h := NewFollowHandler(services.NewFollowService(nil, nil, nil, nil))

	rec := httptest.NewRecorder()
	h.Status(rec, statusRequest("not-an-id"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
