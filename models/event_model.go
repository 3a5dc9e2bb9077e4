package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventCategory string

const (
	CategorySocial        EventCategory = "social"
	CategoryProfessional  EventCategory = "professional"
	CategoryEducational   EventCategory = "educational"
	CategoryEntertainment EventCategory = "entertainment"
	CategorySports        EventCategory = "sports"
	CategoryOther         EventCategory = "other"
)

func (c EventCategory) Valid() bool {
	switch c {
	case CategorySocial, CategoryProfessional, CategoryEducational,
		CategoryEntertainment, CategorySports, CategoryOther:
		return true
	}
	return false
}

type RSVPStatus string

const (
	RSVPYes   RSVPStatus = "yes"
	RSVPNo    RSVPStatus = "no"
	RSVPMaybe RSVPStatus = "maybe"
)

func (s RSVPStatus) Valid() bool {
	return s == RSVPYes || s == RSVPNo || s == RSVPMaybe
}

type Attendee struct {
	User     primitive.ObjectID `json:"user" bson:"user"`
	Status   RSVPStatus         `json:"status" bson:"status"`
	RSVPDate time.Time          `json:"rsvpDate" bson:"rsvpDate"`
}

type Event struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title        string             `json:"title" bson:"title"`
	Description  string             `json:"description" bson:"description"`
	Creator      primitive.ObjectID `json:"creator" bson:"creator"`
	Location     Location           `json:"location" bson:"location"`
	Date         time.Time          `json:"date" bson:"date"`
	EndDate      *time.Time         `json:"endDate" bson:"endDate"`
	Category     EventCategory      `json:"category" bson:"category"`
	Attendees    []Attendee         `json:"attendees" bson:"attendees"`
	MaxAttendees *int               `json:"maxAttendees" bson:"maxAttendees"`
	IsPrivate    bool               `json:"isPrivate" bson:"isPrivate"`
	Image        string             `json:"image" bson:"image"`
	Tags         []string           `json:"tags" bson:"tags"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// AttendeeCount counts confirmed attendees only.
func (e *Event) AttendeeCount() int {
	n := 0
	for _, a := range e.Attendees {
		if a.Status == RSVPYes {
			n++
		}
	}
	return n
}

// RSVPOf returns the user's RSVP status, "no" when the user never
// responded.
func (e *Event) RSVPOf(userID primitive.ObjectID) RSVPStatus {
	for _, a := range e.Attendees {
		if a.User == userID {
			return a.Status
		}
	}
	return RSVPNo
}

// AtCapacity reports whether another "yes" RSVP would exceed
// maxAttendees. Events without a cap are never at capacity.
func (e *Event) AtCapacity() bool {
	if e.MaxAttendees == nil {
		return false
	}
	return e.AttendeeCount() >= *e.MaxAttendees
}
