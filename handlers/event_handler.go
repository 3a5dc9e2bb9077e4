package handlers

import (
	"encoding/json"
	"net/http"

	"citypulse/middleware"
	"citypulse/models"
	"citypulse/services"
	"citypulse/utils/errors"

	"github.com/gorilla/mux"
)

const defaultEventPageSize = 10

type EventHandler struct {
	eventService *services.EventService
}

func NewEventHandler(eventService *services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var input services.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	event, err := h.eventService.Create(r.Context(), userID, input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"event": event})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	eventID, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var input services.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	event, err := h.eventService.Update(r.Context(), userID, eventID, input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	eventID, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := h.eventService.Delete(r.Context(), userID, eventID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	eventID, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	event, err := h.eventService.Get(r.Context(), userID, eventID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": event})
}

func (h *EventHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skip, limit := pagination(r, defaultEventPageSize)

	events, err := h.eventService.Nearby(r.Context(), userID, skip, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (h *EventHandler) MyEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skip, limit := pagination(r, defaultEventPageSize)

	events, err := h.eventService.ListMine(r.Context(), userID, skip, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (h *EventHandler) UserEvents(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	targetID, err := pathID(mux.Vars(r)["userId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skip, limit := pagination(r, defaultEventPageSize)

	events, err := h.eventService.ListRSVPed(r.Context(), callerID, targetID, skip, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (h *EventHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	eventID, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var input struct {
		Status models.RSVPStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	result, err := h.eventService.RSVP(r.Context(), userID, eventID, input.Status)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *EventHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	eventID, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var input struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	inviteeID, err := pathID(input.UserID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := h.eventService.Invite(r.Context(), userID, eventID, inviteeID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Invitation sent"})
}
