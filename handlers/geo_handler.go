package handlers

import (
	"encoding/json"
	"net/http"

	"citypulse/middleware"
	"citypulse/models"
	"citypulse/services"
	"citypulse/utils/errors"
)

type GeoHandler struct {
	geoService *services.GeoService
}

func NewGeoHandler(geoService *services.GeoService) *GeoHandler {
	return &GeoHandler{geoService: geoService}
}

func (h *GeoHandler) Settings(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	settings, currentCity, err := h.geoService.Settings(r.Context(), userID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"locationSettings": settings,
		"currentCity":      currentCity,
	})
}

func (h *GeoHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var patch services.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	settings, err := h.geoService.UpdateSettings(r.Context(), userID, patch)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locationSettings": settings})
}

func (h *GeoHandler) SetCurrentCity(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var loc models.Location
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	updated, err := h.geoService.SetCurrentCity(r.Context(), userID, loc)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"currentCity": updated})
}

func (h *GeoHandler) SearchCities(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUserID(r); err != nil {
		middleware.WriteError(w, err)
		return
	}

	cities, err := h.geoService.SearchCities(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cities": cities, "count": len(cities)})
}

func (h *GeoHandler) Distance(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUserID(r); err != nil {
		middleware.WriteError(w, err)
		return
	}

	var input struct {
		Point1 []float64 `json:"point1"`
		Point2 []float64 `json:"point2"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	result, err := h.geoService.Distance(input.Point1, input.Point2)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
