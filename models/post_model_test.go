package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLikedBy(t *testing.T) {
	liker := primitive.NewObjectID()
	p := Post{Likes: []primitive.ObjectID{primitive.NewObjectID(), liker}}

	assert.True(t, p.LikedBy(liker))
	assert.False(t, p.LikedBy(primitive.NewObjectID()))
	assert.False(t, (&Post{}).LikedBy(liker))
}

func TestPostTypeValid(t *testing.T) {
	assert.True(t, PostGeneral.Valid())
	assert.True(t, PostEventRelated.Valid())
	assert.True(t, PostAnnouncement.Valid())
	assert.False(t, PostType("story").Valid())
}
