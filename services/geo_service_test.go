package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"citypulse/models"
	"citypulse/utils/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSettingsPatchValidate(t *testing.T) {
	assert.NoError(t, SettingsPatch{}.Validate(), "empty patch is a no-op")

	radius := 50.0
	assert.NoError(t, SettingsPatch{NearMeRadius: &radius}.Validate())

	tooSmall := 4.0
	err := SettingsPatch{NearMeRadius: &tooSmall}.Validate()
	require.Error(t, err)
	assert.Equal(t, "INVALID_INPUT", err.(*errors.APIError).Code)

	tooBig := 101.0
	assert.Error(t, SettingsPatch{NearMeRadius: &tooBig}.Validate())

	incomplete := &models.Location{City: "Austin", Coordinates: []float64{-97.74, 30.27}}
	assert.Error(t, SettingsPatch{SearchLocation: incomplete}.Validate(), "state and country are required")

	complete := &models.Location{City: "Austin", State: "TX", Country: "USA", Coordinates: []float64{-97.74, 30.27}}
	assert.NoError(t, SettingsPatch{SearchLocation: complete}.Validate())
}

func TestFallbackCities(t *testing.T) {
	matches := FallbackCities("san")
	require.Len(t, matches, 1)
	assert.Equal(t, "San Francisco", matches[0].City)

	// state abbreviations match too
	assert.NotEmpty(t, FallbackCities("tx"))

	assert.Empty(t, FallbackCities("zzz"))
}

func TestSearchCitiesRejectsShortQuery(t *testing.T) {
	s := NewGeoService(nil, nil, nil, "")
	_, err := s.SearchCities(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, err.(*errors.APIError).Status)
}

func TestSearchCitiesFallsBackWhenGeocoderDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewGeoService(nil, nil, nil, server.URL)
	cities, err := s.SearchCities(context.Background(), "seattle")
	require.NoError(t, err, "fallback is not an error")
	require.Len(t, cities, 1)
	assert.Equal(t, "Seattle", cities[0].City)
}

func TestSearchCitiesCaches(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode([]nominatimPlace{})
	}))
	defer server.Close()

	s := NewGeoService(nil, nil, testRedis(t), server.URL)

	_, err := s.SearchCities(context.Background(), "Portland")
	require.NoError(t, err)
	_, err = s.SearchCities(context.Background(), "portland")
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "second lookup is served from cache, case-insensitively")
}

func TestMapPlaces(t *testing.T) {
	place := func(mutate func(*nominatimPlace)) nominatimPlace {
		p := nominatimPlace{Lat: "30.2672", Lon: "-97.7431", DisplayName: "Austin, Travis County, Texas, United States", AddressType: "city"}
		p.Address.City = "Austin"
		p.Address.State = "Texas"
		p.Address.Country = "United States"
		if mutate != nil {
			mutate(&p)
		}
		return p
	}

	cities := mapPlaces([]nominatimPlace{place(nil)})
	require.Len(t, cities, 1)
	assert.Equal(t, "Austin", cities[0].City)
	assert.Equal(t, "Texas", cities[0].State)
	assert.Equal(t, []float64{-97.7431, 30.2672}, cities[0].Coordinates)

	// non North American places are dropped
	cities = mapPlaces([]nominatimPlace{place(func(p *nominatimPlace) { p.Address.Country = "France" })})
	assert.Empty(t, cities)

	// towns count as cities
	cities = mapPlaces([]nominatimPlace{place(func(p *nominatimPlace) {
		p.AddressType = "town"
		p.Address.City = ""
		p.Address.Town = "Marfa"
	})})
	require.Len(t, cities, 1)
	assert.Equal(t, "Marfa", cities[0].City)

	// unparseable coordinates are dropped
	cities = mapPlaces([]nominatimPlace{place(func(p *nominatimPlace) { p.Lat = "north" })})
	assert.Empty(t, cities)

	// results are capped at 8
	many := make([]nominatimPlace, 12)
	for i := range many {
		many[i] = place(nil)
	}
	assert.Len(t, mapPlaces(many), 8)
}

func TestDistanceEndpointValidation(t *testing.T) {
	s := NewGeoService(nil, nil, nil, "")

	_, err := s.Distance([]float64{-122.42}, []float64{-118.24, 34.05})
	assert.Error(t, err)

	result, err := s.Distance([]float64{-122.4194, 37.7749}, []float64{-118.2437, 34.0522})
	require.NoError(t, err)
	assert.InDelta(t, 347, result.DistanceMiles, 15)
	assert.InDelta(t, result.DistanceMiles*1.60934, result.DistanceKm, 1)
}
