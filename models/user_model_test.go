package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLocationIsSet(t *testing.T) {
	assert.False(t, Location{}.IsSet())
	assert.False(t, Location{Coordinates: []float64{0, 0}}.IsSet(), "[0,0] means never recorded")
	assert.False(t, Location{Coordinates: []float64{-122.42}}.IsSet())
	assert.True(t, Location{Coordinates: []float64{-122.42, 37.77}}.IsSet())
	// only the longitude is the sentinel check
	assert.True(t, Location{Coordinates: []float64{-122.42, 0}}.IsSet())
}

func TestSearchOrigin(t *testing.T) {
	current := Location{City: "San Francisco", Coordinates: []float64{-122.42, 37.77}}
	search := Location{City: "Austin", Coordinates: []float64{-97.74, 30.27}}

	u := User{
		CurrentCity: current,
		LocationSettings: LocationSettings{
			SearchLocation:     search,
			AutoDetectLocation: true,
		},
	}
	assert.Equal(t, current, u.SearchOrigin())

	u.LocationSettings.AutoDetectLocation = false
	assert.Equal(t, search, u.SearchOrigin())
}

func TestRadiusFallback(t *testing.T) {
	u := User{}
	assert.Equal(t, float64(DefaultNearMeRadius), u.Radius())

	u.LocationSettings.NearMeRadius = 50
	assert.Equal(t, 50.0, u.Radius())
}

func TestPasswordNeverSerialized(t *testing.T) {
	u := User{Username: "ada", Password: "$2a$10$hash"}
	data, err := json.Marshal(u)
	assert.NoError(t, err)
	assert.NotContains(t, string(data), "hash")
}

func TestSummary(t *testing.T) {
	id := primitive.NewObjectID()
	u := User{ID: id, FullName: "Ada Lovelace", Username: "ada", ProfilePic: "pic.jpg", Email: "ada@example.com"}
	s := u.Summary()
	assert.Equal(t, id, s.ID)
	assert.Equal(t, "Ada Lovelace", s.FullName)
	assert.Equal(t, "ada", s.Username)
	assert.Equal(t, "pic.jpg", s.ProfilePic)
}
