package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"citypulse/models"
	"citypulse/utils/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FollowService maintains the directed follow edges and keeps the
// denormalized follower/following lists on User in step with them. The
// edge collection is the source of truth.
type FollowService struct {
	follows       *mongo.Collection
	users         *mongo.Collection
	userSvc       *UserService
	notifications *NotificationService
}

func NewFollowService(follows, users *mongo.Collection, userSvc *UserService, notifications *NotificationService) *FollowService {
	return &FollowService{follows: follows, users: users, userSvc: userSvc, notifications: notifications}
}

// Follow creates the edge and both list entries as one logical unit: if
// a later write fails the earlier ones are compensated so the caller
// never sees a success with half the state applied.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	if followerID == targetID {
		return errors.Conflict("You cannot follow yourself")
	}

	count, err := s.users.CountDocuments(ctx, bson.M{"_id": targetID})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to check user", http.StatusInternalServerError)
	}
	if count == 0 {
		return errors.NotFound("User not found")
	}

	count, err = s.follows.CountDocuments(ctx, bson.M{"follower": followerID, "following": targetID})
	if err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to check follow status", http.StatusInternalServerError)
	}
	if count > 0 {
		return errors.Conflict("Already following this user")
	}

	edge := models.Follow{Follower: followerID, Following: targetID, CreatedAt: time.Now()}
	result, err := s.follows.InsertOne(ctx, edge)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Conflict("Already following this user")
		}
		return errors.Wrap(err, "DB_ERROR", "Failed to follow user", http.StatusInternalServerError)
	}
	edgeID := result.InsertedID.(primitive.ObjectID)

	_, err = s.users.UpdateOne(ctx, bson.M{"_id": followerID},
		bson.M{"$addToSet": bson.M{"following": targetID}})
	if err != nil {
		s.compensate(ctx, edgeID, followerID, targetID, false)
		return errors.Wrap(err, "DB_ERROR", "Failed to follow user", http.StatusInternalServerError)
	}

	_, err = s.users.UpdateOne(ctx, bson.M{"_id": targetID},
		bson.M{"$addToSet": bson.M{"followers": followerID}})
	if err != nil {
		s.compensate(ctx, edgeID, followerID, targetID, true)
		return errors.Wrap(err, "DB_ERROR", "Failed to follow user", http.StatusInternalServerError)
	}

	s.userSvc.Invalidate(ctx, followerID)
	s.userSvc.Invalidate(ctx, targetID)

	follower, err := s.userSvc.GetUser(ctx, followerID.Hex())
	if err != nil {
		log.Printf("Failed to load follower %s, skipping follow notification: %v", followerID.Hex(), err)
		return nil
	}
	if err := s.notifications.Notify(ctx, targetID, followerID,
		models.NotificationFollow, FollowMessage(follower.Username), nil, nil); err != nil {
		log.Printf("Failed to notify follow %s -> %s: %v", followerID.Hex(), targetID.Hex(), err)
	}
	return nil
}

// compensate rolls back a partially applied follow.
func (s *FollowService) compensate(ctx context.Context, edgeID, followerID, targetID primitive.ObjectID, followingApplied bool) {
	if followingApplied {
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": followerID},
			bson.M{"$pull": bson.M{"following": targetID}}); err != nil {
			log.Printf("Failed to roll back following list for %s: %v", followerID.Hex(), err)
		}
	}
	if _, err := s.follows.DeleteOne(ctx, bson.M{"_id": edgeID}); err != nil {
		log.Printf("Failed to roll back follow edge %s: %v", edgeID.Hex(), err)
	}
}

// Unfollow removes the edge and both list entries. Unfollowing an edge
// that does not exist is a no-op, not an error.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	if _, err := s.follows.DeleteOne(ctx, bson.M{"follower": followerID, "following": targetID}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to unfollow user", http.StatusInternalServerError)
	}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": followerID},
		bson.M{"$pull": bson.M{"following": targetID}}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to unfollow user", http.StatusInternalServerError)
	}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": targetID},
		bson.M{"$pull": bson.M{"followers": followerID}}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to unfollow user", http.StatusInternalServerError)
	}

	s.userSvc.Invalidate(ctx, followerID)
	s.userSvc.Invalidate(ctx, targetID)
	return nil
}

// IsFollowing checks the edge collection, not the derived lists.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, targetID primitive.ObjectID) (bool, error) {
	count, err := s.follows.CountDocuments(ctx, bson.M{"follower": followerID, "following": targetID})
	if err != nil {
		return false, errors.Wrap(err, "DB_ERROR", "Failed to check follow status", http.StatusInternalServerError)
	}
	return count > 0, nil
}

// FollowPage is one page of a user's follower or following list.
type FollowPage struct {
	Users []models.UserSummary `json:"users"`
	Total int                  `json:"total"`
}

// Followers pages through a user's followers, reduced to summaries.
func (s *FollowService) Followers(ctx context.Context, userID primitive.ObjectID, skip, limit int64) (*FollowPage, error) {
	return s.listPage(ctx, userID, "followers", skip, limit)
}

// Following pages through the users a user follows.
func (s *FollowService) Following(ctx context.Context, userID primitive.ObjectID, skip, limit int64) (*FollowPage, error) {
	return s.listPage(ctx, userID, "following", skip, limit)
}

func (s *FollowService) listPage(ctx context.Context, userID primitive.ObjectID, field string, skip, limit int64) (*FollowPage, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, errors.NotFound("User not found")
	}

	ids := user.Followers
	if field == "following" {
		ids = user.Following
	}
	total := len(ids)

	ids = pageSlice(ids, skip, limit)
	summaries, err := s.userSvc.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	// keep the stored list order
	users := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if summary, ok := summaries[id]; ok {
			users = append(users, summary)
		}
	}
	return &FollowPage{Users: users, Total: total}, nil
}

func pageSlice(ids []primitive.ObjectID, skip, limit int64) []primitive.ObjectID {
	if skip >= int64(len(ids)) {
		return nil
	}
	end := skip + limit
	if end > int64(len(ids)) {
		end = int64(len(ids))
	}
	return ids[skip:end]
}
