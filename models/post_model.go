package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostType string

const (
	PostGeneral      PostType = "general"
	PostEventRelated PostType = "event-related"
	PostAnnouncement PostType = "announcement"
)

func (t PostType) Valid() bool {
	return t == PostGeneral || t == PostEventRelated || t == PostAnnouncement
}

const MaxPostContentLength = 500

type Post struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Content   string               `json:"content" bson:"content"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Location  Location             `json:"location" bson:"location"`
	Image     string               `json:"image" bson:"image"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Event     *primitive.ObjectID  `json:"event" bson:"event"`
	Type      PostType             `json:"type" bson:"type"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// LikedBy reports whether the user's id is in the likes list. The list
// holds at most one entry per user; like is a toggle.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
