package services

import (
	"context"
	"testing"

	"citypulse/utils/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestFollowSelfRejected(t *testing.T) {
	s := NewFollowService(nil, nil, nil, nil)
	id := primitive.NewObjectID()

	err := s.Follow(context.Background(), id, id)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", err.(*errors.APIError).Code)
}

func TestUnfollowIdempotent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("repeat unfollow", func(mt *mtest.T) {
		s := NewFollowService(mt.Coll, mt.Coll, NewUserService(nil, nil, "secret", nil), nil)
		follower, target := primitive.NewObjectID(), primitive.NewObjectID()

		// first call removes the edge and both list entries
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)
		require.NoError(mt, s.Unfollow(context.Background(), follower, target))

		// second call matches nothing anywhere and still succeeds
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)
		assert.NoError(mt, s.Unfollow(context.Background(), follower, target))
	})
}

func TestPageSlice(t *testing.T) {
	ids := []primitive.ObjectID{
		primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID(),
	}

	assert.Equal(t, ids[:2], pageSlice(ids, 0, 2))
	assert.Equal(t, ids[2:], pageSlice(ids, 2, 2), "short final page")
	assert.Nil(t, pageSlice(ids, 3, 2), "skip past the end")
	assert.Equal(t, ids, pageSlice(ids, 0, 10))
	assert.Nil(t, pageSlice(nil, 0, 10))
}
