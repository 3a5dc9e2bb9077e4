package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Location is a named place with [lng, lat] coordinates. Venue is only
// used on events.
type Location struct {
	City        string    `json:"city" bson:"city"`
	State       string    `json:"state" bson:"state"`
	Country     string    `json:"country" bson:"country"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	Venue       string    `json:"venue,omitempty" bson:"venue,omitempty"`
}

// IsSet reports whether the location carries usable coordinates.
// [0,0] is the "never recorded" sentinel; only the longitude is checked,
// so a point exactly on the prime meridian reads as unset.
func (l Location) IsSet() bool {
	return len(l.Coordinates) == 2 && l.Coordinates[0] != 0
}

type LocationSettings struct {
	SearchLocation     Location `json:"searchLocation" bson:"searchLocation"`
	NearMeRadius       float64  `json:"nearMeRadius" bson:"nearMeRadius"`
	AutoDetectLocation bool     `json:"autoDetectLocation" bson:"autoDetectLocation"`
}

const (
	MinNearMeRadius     = 5
	MaxNearMeRadius     = 100
	DefaultNearMeRadius = 25
)

type User struct {
	ID               primitive.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Email            string               `json:"email" bson:"email"`
	FullName         string               `json:"fullName" bson:"fullName"`
	Username         string               `json:"username" bson:"username"`
	Password         string               `json:"-" bson:"password"`
	ProfilePic       string               `json:"profilePic" bson:"profilePic"`
	Bio              string               `json:"bio" bson:"bio"`
	LocationSettings LocationSettings     `json:"locationSettings" bson:"locationSettings"`
	CurrentCity      Location             `json:"currentCity" bson:"currentCity"`
	Followers        []primitive.ObjectID `json:"followers" bson:"followers"`
	Following        []primitive.ObjectID `json:"following" bson:"following"`
	CreatedAt        time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// SearchOrigin is the location discovery queries measure from: the
// current city when auto-detect is on, the explicit search location
// otherwise.
func (u *User) SearchOrigin() Location {
	if u.LocationSettings.AutoDetectLocation {
		return u.CurrentCity
	}
	return u.LocationSettings.SearchLocation
}

// Radius returns the user's near-me radius in miles, falling back to the
// default for documents written before the field existed.
func (u *User) Radius() float64 {
	if u.LocationSettings.NearMeRadius == 0 {
		return DefaultNearMeRadius
	}
	return u.LocationSettings.NearMeRadius
}

// UserSummary is the public shape joined onto events, posts, follows and
// notifications.
type UserSummary struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id"`
	FullName   string             `json:"fullName" bson:"fullName"`
	Username   string             `json:"username" bson:"username"`
	ProfilePic string             `json:"profilePic" bson:"profilePic"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		FullName:   u.FullName,
		Username:   u.Username,
		ProfilePic: u.ProfilePic,
	}
}
