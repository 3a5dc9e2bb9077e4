package handlers

import (
	"net/http"

	"citypulse/middleware"
	"citypulse/services"

	"github.com/gorilla/mux"
)

const defaultFollowPageSize = 20

type FollowHandler struct {
	followService *services.FollowService
}

func NewFollowHandler(followService *services.FollowService) *FollowHandler {
	return &FollowHandler{followService: followService}
}

func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	targetID, err := pathID(mux.Vars(r)["userId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := h.followService.Follow(r.Context(), userID, targetID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User followed", "isFollowing": true})
}

func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	targetID, err := pathID(mux.Vars(r)["userId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := h.followService.Unfollow(r.Context(), userID, targetID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User unfollowed", "isFollowing": false})
}

// Status reports whether the caller follows the user in the path.
func (h *FollowHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	targetID, err := pathID(mux.Vars(r)["userId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	isFollowing, err := h.followService.IsFollowing(r.Context(), userID, targetID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"isFollowing": isFollowing})
}

func (h *FollowHandler) Followers(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUserID(r); err != nil {
		middleware.WriteError(w, err)
		return
	}
	targetID, err := pathID(mux.Vars(r)["userId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skip, limit := pagination(r, defaultFollowPageSize)

	page, err := h.followService.Followers(r.Context(), targetID, skip, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *FollowHandler) Following(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUserID(r); err != nil {
		middleware.WriteError(w, err)
		return
	}
	targetID, err := pathID(mux.Vars(r)["userId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skip, limit := pagination(r, defaultFollowPageSize)

	page, err := h.followService.Following(r.Context(), targetID, skip, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
