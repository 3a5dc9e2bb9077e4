package services

import (
	"context"
	"strings"
	"testing"

	"citypulse/models"
	"citypulse/utils/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestCreatePostInputChecks(t *testing.T) {
	// nil deps: these inputs must be rejected before any lookup
	s := NewPostService(nil, nil, nil, nil, nil)
	userID := primitive.NewObjectID()

	_, err := s.Create(context.Background(), userID, PostInput{})
	require.Error(t, err)
	assert.Equal(t, "INVALID_INPUT", err.(*errors.APIError).Code)

	_, err = s.Create(context.Background(), userID, PostInput{Content: strings.Repeat("a", 501)})
	require.Error(t, err)
	assert.Contains(t, err.(*errors.APIError).Message, "500")

	_, err = s.Create(context.Background(), userID, PostInput{Content: "hi", Type: "story"})
	require.Error(t, err)
	assert.Equal(t, "INVALID_INPUT", err.(*errors.APIError).Code)
}

func TestToggleLikeOpRoundTrip(t *testing.T) {
	userID := primitive.NewObjectID()
	p := &models.Post{}

	op, nowLiked := toggleLikeOp(p, userID)
	require.True(t, nowLiked)
	assert.Contains(t, op, "$addToSet")

	p.Likes = append(p.Likes, userID) // the $addToSet applied
	op, nowLiked = toggleLikeOp(p, userID)
	require.False(t, nowLiked)
	assert.Contains(t, op, "$pull")

	p.Likes = p.Likes[:0] // the $pull applied
	_, nowLiked = toggleLikeOp(p, userID)
	assert.True(t, nowLiked, "two toggles land back on the starting state")
}

func TestToggleLikeRemovesExistingLike(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("unlike", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		postID := primitive.NewObjectID()
		author := primitive.NewObjectID()

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "citypulse.posts", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: postID},
				{Key: "author", Value: author},
				{Key: "likes", Value: bson.A{userID}},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: postID},
				{Key: "author", Value: author},
				{Key: "likes", Value: bson.A{}},
			}}),
		)

		s := NewPostService(mt.Coll, nil, nil, nil, nil)
		result, err := s.ToggleLike(context.Background(), userID, postID)
		require.NoError(mt, err)
		assert.False(mt, result.IsLiked)
		assert.Equal(mt, 0, result.LikeCount)
		assert.Empty(mt, result.Likes)
	})
}
