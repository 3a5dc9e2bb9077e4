package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"citypulse/models"
	"citypulse/utils/errors"
	"citypulse/utils/geo"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	citySearchCacheTTL  = 24 * time.Hour
	nominatimUserAgent  = "CityPulse/1.0"
)

// GeoService owns location settings and the city-search collaborator.
type GeoService struct {
	users        *mongo.Collection
	userSvc      *UserService
	redis        *redis.Client
	httpClient   *http.Client
	nominatimURL string
}

func NewGeoService(users *mongo.Collection, userSvc *UserService, redisClient *redis.Client, nominatimURL string) *GeoService {
	if nominatimURL == "" {
		nominatimURL = defaultNominatimURL
	}
	return &GeoService{
		users:        users,
		userSvc:      userSvc,
		redis:        redisClient,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		nominatimURL: nominatimURL,
	}
}

// Settings returns a user's location settings and current city.
func (s *GeoService) Settings(ctx context.Context, userID primitive.ObjectID) (models.LocationSettings, models.Location, error) {
	user, err := s.userSvc.GetUser(ctx, userID.Hex())
	if err != nil {
		return models.LocationSettings{}, models.Location{}, err
	}
	return user.LocationSettings, user.CurrentCity, nil
}

// SetCurrentCity replaces the user's current city. All fields and a
// 2-element coordinate pair are required.
func (s *GeoService) SetCurrentCity(ctx context.Context, userID primitive.ObjectID, loc models.Location) (models.Location, error) {
	if loc.City == "" || loc.State == "" || loc.Country == "" || len(loc.Coordinates) != 2 {
		return models.Location{}, errors.Invalid("City, state, country, and coordinates [lng, lat] are required")
	}
	loc.Venue = ""

	_, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"currentCity": loc,
		"updatedAt":   time.Now(),
	}})
	if err != nil {
		return models.Location{}, errors.Wrap(err, "DB_ERROR", "Failed to update current location", http.StatusInternalServerError)
	}
	s.userSvc.Invalidate(ctx, userID)
	return loc, nil
}

// SettingsPatch carries the optional fields of a settings update; each
// is validated independently.
type SettingsPatch struct {
	SearchLocation     *models.Location `json:"searchLocation"`
	NearMeRadius       *float64         `json:"nearMeRadius"`
	AutoDetectLocation *bool            `json:"autoDetectLocation"`
}

func (p SettingsPatch) Validate() error {
	if p.SearchLocation != nil {
		loc := p.SearchLocation
		if loc.City == "" || loc.State == "" || loc.Country == "" || len(loc.Coordinates) != 2 {
			return errors.Invalid("Search location must include city, state, country, and coordinates [lng, lat]")
		}
	}
	if p.NearMeRadius != nil {
		if *p.NearMeRadius < models.MinNearMeRadius || *p.NearMeRadius > models.MaxNearMeRadius {
			return errors.Invalid(fmt.Sprintf("Near me radius must be between %d and %d miles",
				models.MinNearMeRadius, models.MaxNearMeRadius))
		}
	}
	return nil
}

// UpdateSettings applies a validated patch and returns the resulting
// settings.
func (s *GeoService) UpdateSettings(ctx context.Context, userID primitive.ObjectID, patch SettingsPatch) (models.LocationSettings, error) {
	if err := patch.Validate(); err != nil {
		return models.LocationSettings{}, err
	}

	update := bson.M{"updatedAt": time.Now()}
	if patch.SearchLocation != nil {
		loc := *patch.SearchLocation
		loc.Venue = ""
		update["locationSettings.searchLocation"] = loc
	}
	if patch.NearMeRadius != nil {
		update["locationSettings.nearMeRadius"] = *patch.NearMeRadius
	}
	if patch.AutoDetectLocation != nil {
		update["locationSettings.autoDetectLocation"] = *patch.AutoDetectLocation
	}

	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": update}, opts).Decode(&user)
	if err != nil {
		return models.LocationSettings{}, errors.Wrap(err, "DB_ERROR", "Failed to update location settings", http.StatusInternalServerError)
	}
	s.userSvc.Invalidate(ctx, userID)
	return user.LocationSettings, nil
}

// City is a geocoding candidate.
type City struct {
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	Coordinates []float64 `json:"coordinates"`
	DisplayName string    `json:"displayName,omitempty"`
}

// SearchCities resolves a free-text query against the geocoding
// collaborator, falling back to the built-in city list when it is
// unavailable. The fallback path is never surfaced as an error.
func (s *GeoService) SearchCities(ctx context.Context, query string) ([]City, error) {
	if len(query) < 2 {
		return nil, errors.Invalid("Search query must be at least 2 characters")
	}

	cacheKey := "citysearch:" + strings.ToLower(query)
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var cities []City
			if err := json.Unmarshal([]byte(cached), &cities); err == nil {
				return cities, nil
			}
		}
	}

	cities, err := s.queryNominatim(ctx, query)
	if err != nil {
		log.Printf("Geocoding unavailable, using fallback cities: %v", err)
		return FallbackCities(query), nil
	}

	if s.redis != nil {
		if data, err := json.Marshal(cities); err == nil {
			s.redis.Set(ctx, cacheKey, data, citySearchCacheTTL)
		}
	}
	return cities, nil
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	AddressType string `json:"addresstype"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		Borough      string `json:"borough"`
		State        string `json:"state"`
		Province     string `json:"province"`
		Region       string `json:"region"`
		County       string `json:"county"`
		Country      string `json:"country"`
	} `json:"address"`
}

func (s *GeoService) queryNominatim(ctx context.Context, query string) ([]City, error) {
	endpoint := fmt.Sprintf("%s?format=json&q=%s&countrycodes=us&limit=10&addressdetails=1&featuretype=city",
		s.nominatimURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	// Nominatim requires a User-Agent
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding service unavailable: status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, err
	}

	return mapPlaces(places), nil
}

var placeTypes = map[string]bool{
	"city": true, "town": true, "village": true, "municipality": true, "borough": true,
}

var allowedCountries = []string{"united states", "canada", "mexico", "us", "usa"}

func mapPlaces(places []nominatimPlace) []City {
	cities := []City{}
	for _, place := range places {
		addr := place.Address

		hasValidType := placeTypes[place.AddressType] || placeTypes[place.Type] ||
			addr.City != "" || addr.Town != "" || addr.Village != ""

		country := strings.ToLower(addr.Country)
		northAmerica := false
		for _, allowed := range allowedCountries {
			if strings.Contains(country, allowed) {
				northAmerica = true
				break
			}
		}
		if !hasValidType || !northAmerica {
			continue
		}

		city := firstNonEmpty(addr.City, addr.Town, addr.Village, addr.Municipality, addr.Borough)
		if city == "" {
			if parts := strings.Split(place.DisplayName, ","); len(parts) > 0 {
				city = strings.TrimSpace(parts[0])
			}
		}
		if city == "" {
			continue
		}

		lon, err1 := strconv.ParseFloat(place.Lon, 64)
		lat, err2 := strconv.ParseFloat(place.Lat, 64)
		if err1 != nil || err2 != nil {
			continue
		}

		cities = append(cities, City{
			City:        city,
			State:       firstNonEmpty(addr.State, addr.Province, addr.Region, addr.County),
			Country:     firstNonEmpty(addr.Country, "Unknown"),
			Coordinates: []float64{lon, lat},
			DisplayName: place.DisplayName,
		})
		if len(cities) == 8 {
			break
		}
	}
	return cities
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var fallbackCities = []City{
	{City: "San Francisco", State: "CA", Country: "USA", Coordinates: []float64{-122.4194, 37.7749}},
	{City: "Los Angeles", State: "CA", Country: "USA", Coordinates: []float64{-118.2437, 34.0522}},
	{City: "New York", State: "NY", Country: "USA", Coordinates: []float64{-74.0060, 40.7128}},
	{City: "Chicago", State: "IL", Country: "USA", Coordinates: []float64{-87.6298, 41.8781}},
	{City: "Austin", State: "TX", Country: "USA", Coordinates: []float64{-97.7431, 30.2672}},
	{City: "Seattle", State: "WA", Country: "USA", Coordinates: []float64{-122.3321, 47.6062}},
	{City: "Denver", State: "CO", Country: "USA", Coordinates: []float64{-104.9903, 39.7392}},
	{City: "Miami", State: "FL", Country: "USA", Coordinates: []float64{-80.1918, 25.7617}},
	{City: "Boston", State: "MA", Country: "USA", Coordinates: []float64{-71.0588, 42.3601}},
	{City: "Portland", State: "OR", Country: "USA", Coordinates: []float64{-122.6765, 45.5152}},
	{City: "Phoenix", State: "AZ", Country: "USA", Coordinates: []float64{-112.0740, 33.4484}},
	{City: "Atlanta", State: "GA", Country: "USA", Coordinates: []float64{-84.3880, 33.7490}},
}

// FallbackCities filters the built-in major-city list by substring.
func FallbackCities(query string) []City {
	q := strings.ToLower(query)
	matches := []City{}
	for _, c := range fallbackCities {
		if strings.Contains(strings.ToLower(c.City), q) || strings.Contains(strings.ToLower(c.State), q) {
			matches = append(matches, c)
		}
	}
	return matches
}

// DistanceResult carries a computed distance in both units, rounded to
// one decimal for display.
type DistanceResult struct {
	DistanceMiles float64 `json:"distanceMiles"`
	DistanceKm    float64 `json:"distanceKm"`
}

// Distance computes the great-circle distance between two [lng, lat]
// pairs.
func (s *GeoService) Distance(point1, point2 []float64) (DistanceResult, error) {
	if len(point1) != 2 || len(point2) != 2 {
		return DistanceResult{}, errors.Invalid("Two coordinate pairs [lng, lat] are required")
	}
	miles := geo.Distance(point1, point2)
	return DistanceResult{
		DistanceMiles: geo.Round1(miles),
		DistanceKm:    geo.Round1(geo.MilesToKm(miles)),
	}, nil
}
