package handlers

import (
	"net/http"

	"citypulse/hub"
	"citypulse/middleware"
	"citypulse/utils/errors"
)

// WSHandler upgrades presence connections. Browsers cannot set headers
// on websocket requests, so the signed token arrives as a query
// parameter instead.
type WSHandler struct {
	hub       *hub.Hub
	jwtSecret string
}

func NewWSHandler(h *hub.Hub, jwtSecret string) *WSHandler {
	return &WSHandler{hub: h, jwtSecret: jwtSecret}
}

func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}
	userID, err := middleware.ParseUserID(token, h.jwtSecret)
	if err != nil {
		middleware.WriteError(w, errors.ErrUnauthorized)
		return
	}

	h.hub.ServeWS(w, r, userID)
}
