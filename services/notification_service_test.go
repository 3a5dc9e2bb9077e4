package services

import (
	"context"
	"testing"

	"citypulse/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNotifySelfIsNoOp(t *testing.T) {
	// nil collections: a self-notification must return before touching
	// the database
	s := NewNotificationService(nil, nil, nil)
	id := primitive.NewObjectID()

	err := s.Notify(context.Background(), id, id, models.NotificationLikePost, "x liked your post", nil, nil)
	assert.NoError(t, err)
}

func TestMessageBuilders(t *testing.T) {
	assert.Equal(t, "ada started following you", FollowMessage("ada"))
	assert.Equal(t, "ada liked your post", LikeMessage("ada"))
	assert.Equal(t, `ada is attending your event "Go Meetup"`, RSVPMessage("ada", "Go Meetup"))
	assert.Equal(t, `ada invited you to "Go Meetup"`, InviteMessage("ada", "Go Meetup"))
}
