package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAttendeeCountConfirmedOnly(t *testing.T) {
	e := Event{Attendees: []Attendee{
		{User: primitive.NewObjectID(), Status: RSVPYes},
		{User: primitive.NewObjectID(), Status: RSVPMaybe},
		{User: primitive.NewObjectID(), Status: RSVPNo},
		{User: primitive.NewObjectID(), Status: RSVPYes},
	}}
	assert.Equal(t, 2, e.AttendeeCount())
}

func TestRSVPOfDefaultsToNo(t *testing.T) {
	attendee := primitive.NewObjectID()
	e := Event{Attendees: []Attendee{{User: attendee, Status: RSVPMaybe}}}

	assert.Equal(t, RSVPMaybe, e.RSVPOf(attendee))
	assert.Equal(t, RSVPNo, e.RSVPOf(primitive.NewObjectID()))
}

func TestAtCapacity(t *testing.T) {
	cap2 := 2
	e := Event{MaxAttendees: &cap2, Attendees: []Attendee{
		{User: primitive.NewObjectID(), Status: RSVPYes},
		{User: primitive.NewObjectID(), Status: RSVPMaybe},
	}}
	assert.False(t, e.AtCapacity(), "maybe does not count against the cap")

	e.Attendees = append(e.Attendees, Attendee{User: primitive.NewObjectID(), Status: RSVPYes})
	assert.True(t, e.AtCapacity())

	e.MaxAttendees = nil
	assert.False(t, e.AtCapacity(), "uncapped events are never full")
}

func TestEventCategoryValid(t *testing.T) {
	for _, c := range []EventCategory{CategorySocial, CategoryProfessional, CategoryEducational, CategoryEntertainment, CategorySports, CategoryOther} {
		assert.True(t, c.Valid(), string(c))
	}
	assert.False(t, EventCategory("party").Valid())
	assert.False(t, EventCategory("").Valid())
}

func TestRSVPStatusValid(t *testing.T) {
	assert.True(t, RSVPYes.Valid())
	assert.True(t, RSVPNo.Valid())
	assert.True(t, RSVPMaybe.Valid())
	assert.False(t, RSVPStatus("attending").Valid())
}
