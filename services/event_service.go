package services

import (
	"context"
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

// EventService owns events, RSVPs and invites. Nearby discovery runs on
// the 2dsphere index; the flat listings (my events, a user's RSVP'd
// events) compute distance application-side from the caller's current
// city.
type EventService struct {
	events        *mongo.Collection
	userSvc       *UserService
	notifications *NotificationService
	images        ImageStore
}

func NewEventService(events *mongo.Collection, userSvc *UserService, notifications *NotificationService, images ImageStore) *EventService {
	return &EventService{events: events, userSvc: userSvc, notifications: notifications, images: images}
}

type EventInput struct {
	Title        string               `json:"title" validate:"required,max=100"`
	Description  string               `json:"description" validate:"required,max=1000"`
	Date         time.Time            `json:"date" validate:"required"`
	EndDate      *time.Time           `json:"endDate"`
	Category     models.EventCategory `json:"category"`
	MaxAttendees *int                 `json:"maxAttendees" validate:"omitempty,min=1"`
	IsPrivate    bool                 `json:"isPrivate"`
	Venue        string               `json:"venue"`
	Tags         []string             `json:"tags" validate:"dive,max=20"`
	Image        string               `json:"image"`
}

func (in *EventInput) normalize() error {
	if err := validate.Struct(in); err != nil {
		return errors.Invalid("Title, description, and date are required")
	}
	if in.Category == "" {
		in.Category = models.CategoryOther
	}
	if !in.Category.Valid() {
		return errors.Invalid("Invalid event category")
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return nil
}

// EventView is an event decorated for responses.
type EventView struct {
	models.Event
	Creator       models.UserSummary `json:"creator"`
	UserRSVP      models.RSVPStatus  `json:"userRSVP"`
	AttendeeCount int                `json:"attendeeCount"`
}

// Create inserts an event at the creator's current city; the creator
// auto-attends with status "yes".
func (s *EventService) Create(ctx context.Context, userID primitive.ObjectID, input EventInput) (*EventView, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	user, err := s.userSvc.GetUser(ctx, userID.Hex())
	if err != nil {
		return nil, err
	}
	if user.CurrentCity.City == "" {
		return nil, errors.Invalid("Location required. Please update your location in settings.")
	}

	imageURL := ""
	if input.Image != "" && s.images != nil {
		imageURL, err = s.images.Upload(ctx, input.Image)
		if err != nil {
			return nil, err
		}
	}

	location := user.CurrentCity
	location.Venue = input.Venue

	now := time.Now()
	event := models.Event{
		Title:        input.Title,
		Description:  input.Description,
		Creator:      userID,
		Location:     location,
		Date:         input.Date,
		EndDate:      input.EndDate,
		Category:     input.Category,
		Attendees:    []models.Attendee{{User: userID, Status: models.RSVPYes, RSVPDate: now}},
		MaxAttendees: input.MaxAttendees,
		IsPrivate:    input.IsPrivate,
		Image:        imageURL,
		Tags:         input.Tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := s.events.InsertOne(ctx, event)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to create event", http.StatusInternalServerError)
	}
	event.ID = result.InsertedID.(primitive.ObjectID)

	return &EventView{
		Event:         event,
		Creator:       user.Summary(),
		UserRSVP:      models.RSVPYes,
		AttendeeCount: 1,
	}, nil
}

// Update edits an event. Creator-only; the date must be in the future.
func (s *EventService) Update(ctx context.Context, userID, eventID primitive.ObjectID, input EventInput) (*EventView, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Creator != userID {
		return nil, errors.Forbidden("You can only edit your own events")
	}
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if !input.Date.After(time.Now()) {
		return nil, errors.Invalid("Event date must be in the future")
	}

	imageURL := event.Image
	if input.Image != "" && s.images != nil {
		imageURL, err = s.images.Upload(ctx, input.Image)
		if err != nil {
			return nil, err
		}
	}

	update := bson.M{
		"title":          input.Title,
		"description":    input.Description,
		"date":           input.Date,
		"endDate":        input.EndDate,
		"category":       input.Category,
		"maxAttendees":   input.MaxAttendees,
		"isPrivate":      input.IsPrivate,
		"location.venue": input.Venue,
		"tags":           input.Tags,
		"image":          imageURL,
		"updatedAt":      time.Now(),
	}

	var updated models.Event
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = s.events.FindOneAndUpdate(ctx, bson.M{"_id": eventID}, bson.M{"$set": update}, opts).Decode(&updated)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to update event", http.StatusInternalServerError)
	}

	creator, _ := s.userSvc.GetUser(ctx, userID.Hex())
	return &EventView{
		Event:         updated,
		Creator:       creator.Summary(),
		UserRSVP:      updated.RSVPOf(userID),
		AttendeeCount: updated.AttendeeCount(),
	}, nil
}

// Delete removes an event. Creator-only.
func (s *EventService) Delete(ctx context.Context, userID, eventID primitive.ObjectID) error {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Creator != userID {
		return errors.Forbidden("You can only delete your own events")
	}
	if _, err := s.events.DeleteOne(ctx, bson.M{"_id": eventID}); err != nil {
		return errors.Wrap(err, "DB_ERROR", "Failed to delete event", http.StatusInternalServerError)
	}
	return nil
}

// AttendeeView is an attendee entry with the user summary joined in.
type AttendeeView struct {
	User     models.UserSummary `json:"user"`
	Status   models.RSVPStatus  `json:"status"`
	RSVPDate time.Time          `json:"rsvpDate"`
}

// EventDetail is the single-event response with populated attendees.
type EventDetail struct {
	models.Event
	Creator       models.UserSummary `json:"creator"`
	Attendees     []AttendeeView     `json:"attendees"`
	UserRSVP      models.RSVPStatus  `json:"userRSVP"`
	AttendeeCount int                `json:"attendeeCount"`
}

// Get returns one event with creator and attendee summaries.
func (s *EventService) Get(ctx context.Context, userID, eventID primitive.ObjectID) (*EventDetail, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ids := []primitive.ObjectID{event.Creator}
	for _, a := range event.Attendees {
		ids = append(ids, a.User)
	}
	summaries, err := s.userSvc.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	attendees := make([]AttendeeView, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		attendees = append(attendees, AttendeeView{
			User:     summaries[a.User],
			Status:   a.Status,
			RSVPDate: a.RSVPDate,
		})
	}

	return &EventDetail{
		Event:         *event,
		Creator:       summaries[event.Creator],
		Attendees:     attendees,
		UserRSVP:      event.RSVPOf(userID),
		AttendeeCount: event.AttendeeCount(),
	}, nil
}

// NearbyEvent is a discovery result: the event plus joined creator,
// distance in miles and the confirmed attendee count.
type NearbyEvent struct {
	models.Event    `bson:",inline"`
	Creator         models.UserSummary `json:"creator" bson:"creatorInfo"`
	DistanceInMiles float64            `json:"distanceInMiles" bson:"distanceInMiles"`
	AttendeeCount   int                `json:"attendeeCount" bson:"attendeeCount"`
}

// Nearby runs the spherical nearest scan from the user's effective
// search origin, keeps future public events, and orders by event date —
// soonest first, not closest first.
func (s *EventService) Nearby(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]NearbyEvent, error) {
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
			"query": bson.M{
				"date":      bson.M{"$gte": time.Now()},
				"isPrivate": false,
			},
		}}},
		{{Key: "$sort", Value: bson.M{"date": 1}}},
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "creator",
			"foreignField": "_id",
			"as":           "creatorInfo",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"fullName": 1, "username": 1, "profilePic": 1}},
			},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"creatorInfo":     bson.M{"$arrayElemAt": bson.A{"$creatorInfo", 0}},
			"distanceInMiles": bson.M{"$divide": bson.A{"$distance", geo.MetersPerMile}},
			"attendeeCount": bson.M{"$size": bson.M{"$filter": bson.M{
				"input": "$attendees",
				"cond":  bson.M{"$eq": bson.A{"$$this.status", "yes"}},
			}}},
		}}},
	}

	cursor, err := s.events.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to find nearby events", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	results := []NearbyEvent{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode nearby events", http.StatusInternalServerError)
	}
	return results, nil
}

// AttendedEvent is a flat-listing result; distance comes from the
// Haversine path, not the spatial index.
type AttendedEvent struct {
	models.Event
	Creator         models.UserSummary `json:"creator"`
	UserRSVP        models.RSVPStatus  `json:"userRSVP"`
	DistanceInMiles float64            `json:"distanceInMiles"`
	AttendeeCount   int                `json:"attendeeCount"`
}

// ListMine returns events the caller attends, soonest first. The filter
// matches status "yes" only — the historical yes-or-maybe expression
// never matched "maybe" and that behavior is kept.
func (s *EventService) ListMine(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]AttendedEvent, error) {
	filter := bson.M{
		"attendees.user":   userID,
		"attendees.status": models.RSVPYes,
	}
	events, err := s.findFlat(ctx, filter, skip, limit)
	if err != nil {
		return nil, err
	}

	user, err := s.userSvc.GetUser(ctx, userID.Hex())
	if err != nil {
		return nil, err
	}
	return s.decorateFlat(ctx, events, user.CurrentCity, func(e *models.Event) models.RSVPStatus {
		return models.RSVPYes
	})
}

// ListRSVPed returns public events another user responded yes or maybe
// to, with distance measured from the requesting user's current city.
func (s *EventService) ListRSVPed(ctx context.Context, callerID, targetID primitive.ObjectID, skip, limit int64) ([]AttendedEvent, error) {
	filter := bson.M{
		"attendees.user":   targetID,
		"attendees.status": bson.M{"$in": bson.A{models.RSVPYes, models.RSVPMaybe}},
		"isPrivate":        false,
	}
	events, err := s.findFlat(ctx, filter, skip, limit)
	if err != nil {
		return nil, err
	}

	caller, err := s.userSvc.GetUser(ctx, callerID.Hex())
	if err != nil {
		return nil, err
	}
	return s.decorateFlat(ctx, events, caller.CurrentCity, func(e *models.Event) models.RSVPStatus {
		return e.RSVPOf(targetID)
	})
}

func (s *EventService) findFlat(ctx context.Context, filter bson.M, skip, limit int64) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.M{"date": 1}).SetSkip(skip).SetLimit(limit)
	cursor, err := s.events.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to load events", http.StatusInternalServerError)
	}
	defer cursor.Close(ctx)

	events := []models.Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to decode events", http.StatusInternalServerError)
	}
	return events, nil
}

func (s *EventService) decorateFlat(ctx context.Context, events []models.Event, origin models.Location, rsvpOf func(*models.Event) models.RSVPStatus) ([]AttendedEvent, error) {
	creatorIDs := make([]primitive.ObjectID, 0, len(events))
	for i := range events {
		creatorIDs = append(creatorIDs, events[i].Creator)
	}
	summaries, err := s.userSvc.Summaries(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]AttendedEvent, 0, len(events))
	for i := range events {
		e := events[i]
		out = append(out, AttendedEvent{
			Event:           e,
			Creator:         summaries[e.Creator],
			UserRSVP:        rsvpOf(&e),
			DistanceInMiles: flatDistance(origin, &e),
			AttendeeCount:   e.AttendeeCount(),
		})
	}
	return out, nil
}

// flatDistance measures from the origin to an event using the same
// great-circle math as the index-backed path; zero when either side has
// no usable coordinates.
func flatDistance(origin models.Location, event *models.Event) float64 {
	if !origin.IsSet() || len(event.Location.Coordinates) != 2 {
		return 0
	}
	return geo.Distance(origin.Coordinates, event.Location.Coordinates)
}

// RSVPResult echoes the updated attendance state.
type RSVPResult struct {
	Message       string            `json:"message"`
	UserRSVP      models.RSVPStatus `json:"userRSVP"`
	AttendeeCount int               `json:"attendeeCount"`
	Attendees     []AttendeeView    `json:"attendees"`
}

// checkCapacity rejects a "yes" RSVP once the confirmed count has
// reached maxAttendees. "no" and "maybe" are never blocked.
func checkCapacity(event *models.Event, status models.RSVPStatus) error {
	if status == models.RSVPYes && event.AtCapacity() {
		return errors.Conflict("Event is at capacity")
	}
	return nil
}

// RSVP upserts the caller's attendance: one record per user per event.
// A "yes" from someone other than the creator notifies the creator.
func (s *EventService) RSVP(ctx context.Context, userID, eventID primitive.ObjectID, status models.RSVPStatus) (*RSVPResult, error) {
	if !status.Valid() {
		return nil, errors.Invalid("Invalid RSVP status")
	}

	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(event, status); err != nil {
		return nil, err
	}

	now := time.Now()
	result, err := s.events.UpdateOne(ctx,
		bson.M{"_id": eventID, "attendees.user": userID},
		bson.M{"$set": bson.M{"attendees.$.status": status, "attendees.$.rsvpDate": now}})
	if err != nil {
		return nil, errors.Wrap(err, "DB_ERROR", "Failed to update RSVP", http.StatusInternalServerError)
	}
	if result.MatchedCount == 0 {
		_, err = s.events.UpdateOne(ctx, bson.M{"_id": eventID},
			bson.M{"$push": bson.M{"attendees": models.Attendee{User: userID, Status: status, RSVPDate: now}}})
		if err != nil {
			return nil, errors.Wrap(err, "DB_ERROR", "Failed to record RSVP", http.StatusInternalServerError)
		}
	}

	event, err = s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if status == models.RSVPYes {
		user, err := s.userSvc.GetUser(ctx, userID.Hex())
		if err == nil {
			if err := s.notifications.Notify(ctx, event.Creator, userID,
				models.NotificationEventRSVP, RSVPMessage(user.Username, event.Title), nil, &eventID); err != nil {
				log.Printf("Failed to notify RSVP on event %s: %v", eventID.Hex(), err)
			}
		}
	}

	ids := make([]primitive.ObjectID, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		ids = append(ids, a.User)
	}
	summaries, err := s.userSvc.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	attendees := make([]AttendeeView, 0, len(event.Attendees))
	for _, a := range event.Attendees {
		attendees = append(attendees, AttendeeView{User: summaries[a.User], Status: a.Status, RSVPDate: a.RSVPDate})
	}

	return &RSVPResult{
		Message:       "RSVP updated to " + string(status),
		UserRSVP:      status,
		AttendeeCount: event.AttendeeCount(),
		Attendees:     attendees,
	}, nil
}

// Invite sends an event_invite notification. The inviter must be the
// creator or a confirmed attendee.
func (s *EventService) Invite(ctx context.Context, userID, eventID, inviteeID primitive.ObjectID) error {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Creator != userID && event.RSVPOf(userID) != models.RSVPYes {
		return errors.Forbidden("You must be attending the event to invite others")
	}

	if _, err := s.userSvc.GetUser(ctx, inviteeID.Hex()); err != nil {
		return errors.NotFound("User not found")
	}

	user, err := s.userSvc.GetUser(ctx, userID.Hex())
	if err != nil {
		return err
	}
	return s.notifications.Notify(ctx, inviteeID, userID,
		models.NotificationEventInvite, InviteMessage(user.Username, event.Title), nil, &eventID)
}

func (s *EventService) load(ctx context.Context, eventID primitive.ObjectID) (*models.Event, error) {
	var event models.Event
	if err := s.events.FindOne(ctx, bson.M{"_id": eventID}).Decode(&event); err != nil {
		return nil, errors.NotFound("Event not found")
	}
	return &event, nil
}
