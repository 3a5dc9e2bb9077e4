package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"citypulse/hub"
	"citypulse/models"
	"citypulse/utils/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationService persists notifications and pushes them to the
// recipient over the websocket hub when the recipient is connected.
type NotificationService struct {
	notifications *mongo.Collection
	users         *mongo.Collection
	hub           *hub.Hub
}

func NewNotificationService(notifications, users *mongo.Collection, h *hub.Hub) *NotificationService {
	return &NotificationService{notifications: notifications, users: users, hub: h}
}

// PostRef is the slice of a post attached to a notification.
type PostRef struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Content string             `json:"content" bson:"content"`
	Title   string             `json:"title,omitempty" bson:"title,omitempty"`
}

// EventRef is the slice of an event attached to notifications and posts.
type EventRef struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	Title string             `json:"title" bson:"title"`
	Date  time.Time          `json:"date,omitempty" bson:"date,omitempty"`
}

// NotificationView is a notification decorated with its sender and any
// related post/event.
type NotificationView struct {
	models.Notification `bson:",inline"`
	Sender              models.UserSummary `json:"sender" bson:"senderInfo"`
	RelatedPost         *PostRef           `json:"relatedPost" bson:"postInfo"`
	RelatedEvent        *EventRef          `json:"relatedEvent" bson:"eventInfo"`
}

type NotificationList struct {
	Notifications []NotificationView `json:"notifications"`
	UnreadCount   int64              `json:"unreadCount"`
}

// Notify records a notification and attempts real-time delivery. A user
// acting on their own content never produces a notification. Push
// failures are not errors; the record is found on the next poll.
func (s *NotificationService) Notify(ctx context.Context, recipient, sender primitive.ObjectID, typ models.NotificationType, message string, relatedPost, relatedEvent *primitive.ObjectID) error {
	if recipient == sender {
		return nil
	}

	n := models.Notification{
		Recipient:    recipient,
		Sender:       sender,
		Type:         typ,
		Message:      message,
		RelatedPost:  relatedPost,
		RelatedEvent: relatedEvent,
		IsRead:       false,
		CreatedAt:    time.Now(),
	}
	result, err := s.notifications.InsertOne(ctx, n)
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to create notification", http.StatusInternalServerError)
	}
	n.ID = result.InsertedID.(primitive.ObjectID)

	s.push(ctx, n)
	return nil
}

func (s *NotificationService) push(ctx context.Context, n models.Notification) {
	if s.hub == nil || !s.hub.IsOnline(n.Recipient.Hex()) {
		return
	}

	var sender models.UserSummary
	opts := options.FindOne().SetProjection(bson.M{"fullName": 1, "username": 1, "profilePic": 1})
	if err := s.users.FindOne(ctx, bson.M{"_id": n.Sender}, opts).Decode(&sender); err != nil {
		log.Printf("Failed to load sender %s for push: %v", n.Sender.Hex(), err)
		return
	}

	view := NotificationView{Notification: n, Sender: sender}
	if !s.hub.PushToUser(n.Recipient.Hex(), hub.Event{Type: hub.EventNewNotification, Data: view}) {
		log.Printf("Missed push for user %s", n.Recipient.Hex())
	}
}

// List returns the recipient's notifications newest-first along with a
// live unread count.
func (s *NotificationService) List(ctx context.Context, recipient primitive.ObjectID, skip, limit int64) (*NotificationList, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"recipient": recipient}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "sender",
			"foreignField": "_id",
			"as":           "senderInfo",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"fullName": 1, "username": 1, "profilePic": 1}},
			},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "posts",
			"localField":   "relatedPost",
			"foreignField": "_id",
			"as":           "postInfo",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"content": 1}},
			},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "events",
			"localField":   "relatedEvent",
			"foreignField": "_id",
			"as":           "eventInfo",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"title": 1, "date": 1}},
			},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"senderInfo": bson.M{"$arrayElemAt": bson.A{"$senderInfo", 0}},
			"postInfo":   bson.M{"$arrayElemAt": bson.A{"$postInfo", 0}},
			"eventInfo":  bson.M{"$arrayElemAt": bson.A{"$eventInfo", 0}},
		}}},
	}

	cursor, err := s.notifications.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load notifications", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	notifications := []NotificationView{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode notifications", http.StatusInternalServerError)
	}

	unread, err := s.notifications.CountDocuments(ctx, bson.M{"recipient": recipient, "isRead": false})
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to count unread notifications", http.StatusInternalServerError)
	}

	return &NotificationList{Notifications: notifications, UnreadCount: unread}, nil
}

// MarkRead transitions a single notification to read. Read is one-way.
func (s *NotificationService) MarkRead(ctx context.Context, recipient, notificationID primitive.ObjectID) error {
	result, err := s.notifications.UpdateOne(ctx,
		bson.M{"_id": notificationID, "recipient": recipient},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to mark notification read", http.StatusInternalServerError)
	}
	if result.MatchedCount == 0 {
		return errors.NotFound("Notification not found")
	}
	return nil
}

// MarkAllRead always succeeds; nothing unread is a no-op.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipient primitive.ObjectID) error {
	_, err := s.notifications.UpdateMany(ctx,
		bson.M{"recipient": recipient, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to mark notifications read", http.StatusInternalServerError)
	}
	return nil
}

// Delete removes a notification owned by the recipient.
func (s *NotificationService) Delete(ctx context.Context, recipient, notificationID primitive.ObjectID) error {
	result, err := s.notifications.DeleteOne(ctx, bson.M{"_id": notificationID, "recipient": recipient})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to delete notification", http.StatusInternalServerError)
	}
	if result.DeletedCount == 0 {
		return errors.NotFound("Notification not found")
	}
	return nil
}

// Message builders for the social actions that fan out.

func FollowMessage(username string) string {
	return fmt.Sprintf("%s started following you", username)
}

func LikeMessage(username string) string {
	return fmt.Sprintf("%s liked your post", username)
}

func RSVPMessage(username, eventTitle string) string {
	return fmt.Sprintf("%s is attending your event \"%s\"", username, eventTitle)
}

func InviteMessage(username, eventTitle string) string {
	return fmt.Sprintf("%s invited you to \"%s\"", username, eventTitle)
}
