package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	sfMission = []float64{-122.42, 37.77}
	sfSoma    = []float64{-122.41, 37.78}
	losAngles = []float64{-118.2437, 34.0522}
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	assert.Zero(t, Distance(sfMission, sfMission))
}

func TestDistanceSymmetric(t *testing.T) {
	assert.InDelta(t, Distance(sfMission, losAngles), Distance(losAngles, sfMission), 1e-9)
}

func TestDistanceNeighborhoodScale(t *testing.T) {
	d := Distance(sfMission, sfSoma)
	assert.Greater(t, d, 0.0)
	assert.Less(t, d, 1.5, "adjacent SF neighborhoods are under 1.5 miles apart")
}

func TestDistanceCityScale(t *testing.T) {
	// SF to LA is roughly 350 miles great-circle
	d := Distance(sfMission, losAngles)
	assert.InDelta(t, 347, d, 15)
}

func TestDistanceMonotonic(t *testing.T) {
	near := Distance(sfMission, sfSoma)
	far := Distance(sfMission, losAngles)
	assert.Less(t, near, far)
}

func TestUnitConversions(t *testing.T) {
	assert.InDelta(t, 1.60934, MilesToKm(1), 1e-9)
	assert.InDelta(t, 1609.34, MilesToMeters(1), 1e-9)
	assert.InDelta(t, 1.0, MetersToMiles(1609.34), 1e-9)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 2.5, Round1(2.449999+0.05))
	assert.Equal(t, 2.4, Round1(2.44))
	assert.Equal(t, 0.0, Round1(0.04))
}
