package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Follow is a directed edge: Follower sees Following's content. The
// (follower, following) pair is unique; the collection is the source of
// truth, the lists on User are a derived cache.
type Follow struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Follower  primitive.ObjectID `json:"follower" bson:"follower"`
	Following primitive.ObjectID `json:"following" bson:"following"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type NotificationType string

const (
	NotificationFollow         NotificationType = "follow"
	NotificationLikePost       NotificationType = "like_post"
	NotificationEventInvite    NotificationType = "event_invite"
	NotificationEventRSVP      NotificationType = "event_rsvp"
	NotificationNewEventNearby NotificationType = "new_event_nearby"
	NotificationMessage        NotificationType = "message"
)

type Notification struct {
	ID           primitive.ObjectID  `json:"_id" bson:"_id,omitempty"`
	Recipient    primitive.ObjectID  `json:"recipient" bson:"recipient"`
	Sender       primitive.ObjectID  `json:"sender" bson:"sender"`
	Type         NotificationType    `json:"type" bson:"type"`
	Message      string              `json:"message" bson:"message"`
	RelatedPost  *primitive.ObjectID `json:"relatedPost" bson:"relatedPost"`
	RelatedEvent *primitive.ObjectID `json:"relatedEvent" bson:"relatedEvent"`
	IsRead       bool                `json:"isRead" bson:"isRead"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
}
