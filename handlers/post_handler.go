package handlers

import (
	"encoding/json"
	"net/http"

	"citypulse/middleware"
	"citypulse/services"
	"citypulse/utils/errors"

	"github.com/gorilla/mux"
)

const defaultPostPageSize = 10

type PostHandler struct {
	postService *services.PostService
}

func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var input services.PostInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	post, err := h.postService.Create(r.Context(), userID, input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"post": post})
}

func (h *PostHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skip, limit := pagination(r, defaultPostPageSize)

	posts, err := h.postService.Nearby(r.Context(), userID, skip, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
}

func (h *PostHandler) FollowingFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skip, limit := pagination(r, defaultPostPageSize)

	posts, err := h.postService.FollowingFeed(r.Context(), userID, skip, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
}

func (h *PostHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	authorID, err := pathID(mux.Vars(r)["userId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	skip, limit := pagination(r, defaultPostPageSize)

	posts, err := h.postService.ByUser(r.Context(), callerID, authorID, skip, limit)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"posts": posts, "count": len(posts)})
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	postID, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	result, err := h.postService.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	postID, err := pathID(mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := h.postService.Delete(r.Context(), userID, postID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}
