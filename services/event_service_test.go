package services

import (
	"testing"
	"time"

	"citypulse/models"
	"citypulse/utils/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEventInputNormalize(t *testing.T) {
	valid := EventInput{Title: "Go Meetup", Description: "Talks and pizza", Date: time.Now().Add(time.Hour)}
	input := valid
	require.NoError(t, input.normalize())
	assert.Equal(t, models.CategoryOther, input.Category, "category defaults to other")
	assert.NotNil(t, input.Tags, "tags normalize to an empty list")

	input = valid
	input.Title = ""
	assert.Error(t, input.normalize())

	input = valid
	input.Category = "party"
	assert.Error(t, input.normalize())

	zero := 0
	input = valid
	input.MaxAttendees = &zero
	assert.Error(t, input.normalize())
}

func TestCheckCapacity(t *testing.T) {
	cap1 := 1
	full := &models.Event{
		MaxAttendees: &cap1,
		Attendees:    []models.Attendee{{User: primitive.NewObjectID(), Status: models.RSVPYes}},
	}

	err := checkCapacity(full, models.RSVPYes)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", err.(*errors.APIError).Code)
	assert.Equal(t, "Event is at capacity", err.(*errors.APIError).Message)

	assert.NoError(t, checkCapacity(full, models.RSVPMaybe), "maybe is never blocked")
	assert.NoError(t, checkCapacity(full, models.RSVPNo))

	uncapped := &models.Event{Attendees: full.Attendees}
	assert.NoError(t, checkCapacity(uncapped, models.RSVPYes))
}

func TestFlatDistance(t *testing.T) {
	sf := models.Location{City: "San Francisco", Coordinates: []float64{-122.4194, 37.7749}}
	la := &models.Event{Location: models.Location{Coordinates: []float64{-118.2437, 34.0522}}}

	assert.InDelta(t, 347, flatDistance(sf, la), 15)

	unset := models.Location{Coordinates: []float64{0, 0}}
	assert.Zero(t, flatDistance(unset, la), "unset origin yields no distance")

	noCoords := &models.Event{}
	assert.Zero(t, flatDistance(sf, noCoords))
}
