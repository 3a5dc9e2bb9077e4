package handlers

import (
	"net/http"

	"citypulse/middleware"
	"citypulse/services"

	"github.com/gorilla/mux"
)

const defaultNotificationPageSize = 20

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skip, limit := pagination(r, defaultNotificationPageSize)

	list, err := h.notificationService.List(r.Context(), userID, skip, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	notificationID, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), userID, notificationID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := h.notificationService.MarkAllRead(r.Context(), userID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	notificationID, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := h.notificationService.Delete(r.Context(), userID, notificationID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Notification deleted"})
}
