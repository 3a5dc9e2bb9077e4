package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"citypulse/models"
	"citypulse/utils/errors"
	"citypulse/utils/geo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostService owns posts, likes and the two feeds: the social feed from
// followed users and the location feed from the spatial index.
type PostService struct {
	posts         *mongo.Collection
	events        *mongo.Collection
	userSvc       *UserService
	notifications *NotificationService
	images        ImageStore
}

func NewPostService(posts, events *mongo.Collection, userSvc *UserService, notifications *NotificationService, images ImageStore) *PostService {
	return &PostService{posts: posts, events: events, userSvc: userSvc, notifications: notifications, images: images}
}

type PostInput struct {
	Content string          `json:"content"`
	Image   string          `json:"image"`
	Type    models.PostType `json:"type"`
	Event   string          `json:"event"`
}

// PostView is a post decorated for responses.
type PostView struct {
	models.Post
	Author       models.UserSummary `json:"author"`
	RelatedEvent *EventRef          `json:"relatedEvent,omitempty"`
	IsLiked      bool               `json:"isLiked"`
	LikeCount    int                `json:"likeCount"`
}

// Create inserts a post stamped with the author's current city. A post
// needs content or an image, and an author with no usable location
// cannot post at all.
func (s *PostService) Create(ctx context.Context, userID primitive.ObjectID, input PostInput) (*PostView, error) {
	if input.Content == "" && input.Image == "" {
		return nil, errors.Invalid("Post must have content or an image")
	}
	if len(input.Content) > models.MaxPostContentLength {
		return nil, errors.Invalid(fmt.Sprintf("Post content must be %d characters or less", models.MaxPostContentLength))
	}
	if input.Type == "" {
		input.Type = models.PostGeneral
	}
	if !input.Type.Valid() {
		return nil, errors.Invalid("Invalid post type")
	}

	user, err := s.userSvc.GetUser(ctx, userID.Hex())
	if err != nil {
		return nil, err
	}
	if user.CurrentCity.City == "" || !user.CurrentCity.IsSet() {
		return nil, errors.Invalid("Location required. Please update your location in settings.")
	}

	var eventID *primitive.ObjectID
	var relatedEvent *EventRef
	if input.Event != "" {
		id, err := primitive.ObjectIDFromHex(input.Event)
		if err != nil {
			return nil, errors.Invalid("Invalid event id")
		}
		var event models.Event
		if err := s.events.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
			return nil, errors.NotFound("Event not found")
		}
		eventID = &id
		relatedEvent = &EventRef{ID: event.ID, Title: event.Title, Date: event.Date}
	}

	imageURL := ""
	if input.Image != "" && s.images != nil {
		imageURL, err = s.images.Upload(ctx, input.Image)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	post := models.Post{
		Author:    userID,
		Content:   input.Content,
		Image:     imageURL,
		Location:  user.CurrentCity,
		Type:      input.Type,
		Event:     eventID,
		Likes:     []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := s.posts.InsertOne(ctx, post)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to create post", http.StatusInternalServerError)
	}
	post.ID = result.InsertedID.(primitive.ObjectID)

	return &PostView{
		Post:         post,
		Author:       user.Summary(),
		RelatedEvent: relatedEvent,
		IsLiked:      false,
		LikeCount:    0,
	}, nil
}

// NearbyPost is a location-feed result.
type NearbyPost struct {
	models.Post     `bson:",inline"`
	Author          models.UserSummary `json:"author" bson:"authorInfo"`
	RelatedEvent    *EventRef          `json:"relatedEvent,omitempty" bson:"eventInfo,omitempty"`
	DistanceInMiles float64            `json:"distanceInMiles" bson:"distanceInMiles"`
}

// Nearby runs the spherical nearest scan from the user's effective
// search origin, nearest first.
func (s *PostService) Nearby(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]NearbyPost, error) {
	user, err := s.userSvc.GetUser(ctx, userID.Hex())
	if err != nil {
		return nil, err
	}
	origin := user.SearchOrigin()
	if !origin.IsSet() {
		return nil, errors.Invalid("Location not set. Please update your location in settings.")
	}

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near": bson.M{
				"type":        "Point",
				"coordinates": origin.Coordinates,
			},
			"distanceField": "distance",
			"maxDistance":   geo.MilesToMeters(user.Radius()),
			"spherical":     true,
		}}},
		{{Key: "$sort", Value: bson.M{"createdAt": -1}}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "author",
			"foreignField": "_id",
			"as":           "authorInfo",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"fullName": 1, "username": 1, "profilePic": 1}},
			},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "events",
			"localField":   "event",
			"foreignField": "_id",
			"as":           "eventInfo",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"title": 1, "date": 1}},
			},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"authorInfo":      bson.M{"$arrayElemAt": bson.A{"$authorInfo", 0}},
			"eventInfo":       bson.M{"$arrayElemAt": bson.A{"$eventInfo", 0}},
			"distanceInMiles": bson.M{"$divide": bson.A{"$distance", geo.MetersPerMile}},
		}}},
	}

	cursor, err := s.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to find nearby posts", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	results := []NearbyPost{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode nearby posts", http.StatusInternalServerError)
	}
	return results, nil
}

// FollowingFeed returns posts by the users the caller follows, newest
// first. An empty following list yields an empty feed, not everything.
func (s *PostService) FollowingFeed(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]PostView, error) {
	user, err := s.userSvc.GetUser(ctx, userID.Hex())
	if err != nil {
		return nil, err
	}
	if len(user.Following) == 0 {
		return []PostView{}, nil
	}
	return s.findViews(ctx, userID, bson.M{"author": bson.M{"$in": user.Following}}, skip, limit)
}

// ByUser returns a user's posts, newest first.
func (s *PostService) ByUser(ctx context.Context, callerID, authorID primitive.ObjectID, skip, limit int64) ([]PostView, error) {
	count, err := s.userSvc.users.CountDocuments(ctx, bson.M{"_id": authorID})
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to check user", http.StatusInternalServerError)
	}
	if count == 0 {
		return nil, errors.NotFound("User not found")
	}
	return s.findViews(ctx, callerID, bson.M{"author": authorID}, skip, limit)
}

func (s *PostService) findViews(ctx context.Context, viewerID primitive.ObjectID, filter bson.M, skip, limit int64) ([]PostView, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip(skip).SetLimit(limit)
	cursor, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load posts", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode posts", http.StatusInternalServerError)
	}

	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	eventIDs := []primitive.ObjectID{}
	for i := range posts {
		authorIDs = append(authorIDs, posts[i].Author)
		if posts[i].Event != nil {
			eventIDs = append(eventIDs, *posts[i].Event)
		}
	}
	summaries, err := s.userSvc.Summaries(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	eventRefs, err := s.eventRefs(ctx, eventIDs)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(posts))
	for i := range posts {
		p := posts[i]
		var related *EventRef
		if p.Event != nil {
			if ref, ok := eventRefs[*p.Event]; ok {
				related = &ref
			}
		}
		views = append(views, PostView{
			Post:         p,
			Author:       summaries[p.Author],
			RelatedEvent: related,
			IsLiked:      p.LikedBy(viewerID),
			LikeCount:    len(p.Likes),
		})
	}
	return views, nil
}

func (s *PostService) eventRefs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]EventRef, error) {
	out := make(map[primitive.ObjectID]EventRef, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{"title": 1, "date": 1})
	cursor, err := s.events.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load events", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	var refs []EventRef
	if err := cursor.All(ctx, &refs); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode events", http.StatusInternalServerError)
	}
	for _, ref := range refs {
		out[ref.ID] = ref
	}
	return out, nil
}

// LikeResult echoes the post's like state after a toggle.
type LikeResult struct {
	IsLiked   bool                 `json:"isLiked"`
	LikeCount int                  `json:"likeCount"`
	Likes     []primitive.ObjectID `json:"likes"`
}

// toggleLikeOp picks the update for a like toggle: $pull when the user
// already likes the post, $addToSet otherwise. Applying two toggles in a
// row lands back on the starting state.
func toggleLikeOp(p *models.Post, userID primitive.ObjectID) (bson.M, bool) {
	if p.LikedBy(userID) {
		return bson.M{"$pull": bson.M{"likes": userID}}, false
	}
	return bson.M{"$addToSet": bson.M{"likes": userID}}, true
}

// ToggleLike flips the caller's like on a post. A fresh like by someone
// other than the author notifies the author; removing one does not.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID primitive.ObjectID) (*LikeResult, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}

	op, nowLiked := toggleLikeOp(post, userID)

	var updated models.Post
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.posts.FindOneAndUpdate(ctx, bson.M{"_id": postID}, op, opts).Decode(&updated)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to update like", http.StatusInternalServerError)
	}

	if nowLiked {
		user, err := s.userSvc.GetUser(ctx, userID.Hex())
		if err == nil {
			if err := s.notifications.Notify(ctx, updated.Author, userID,
				models.NotificationLikePost, LikeMessage(user.Username), &postID, nil); err != nil {
				log.Printf("Failed to notify like on post %s: %v", postID.Hex(), err)
			}
		}
	}

	return &LikeResult{
		IsLiked:   nowLiked,
		LikeCount: len(updated.Likes),
		Likes:     updated.Likes,
	}, nil
}

// Delete removes a post. Author-only.
func (s *PostService) Delete(ctx context.Context, userID, postID primitive.ObjectID) error {
	post, err := s.load(ctx, postID)
	if err != nil {
		return err
	}
	if post.Author != userID {
		return errors.Forbidden("You can only delete your own posts")
	}
	if _, err := s.posts.DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to delete post", http.StatusInternalServerError)
	}
	return nil
}

func (s *PostService) load(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		return nil, errors.NotFound("Post not found")
	}
	return &post, nil
}
