package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"citypulse/middleware"
	"citypulse/models"
	"citypulse/services"
	"citypulse/utils/errors"

	"github.com/gorilla/mux"
)

type AuthHandler struct {
	userService *services.UserService
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// AuthResponse is the signup/login payload: the user plus the token,
// which is also set as a cookie for browser clients.
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input services.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	user, token, err := h.userService.Register(r.Context(), input)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	setTokenCookie(w, token)
	writeJSON(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	user, token, err := h.userService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	setTokenCookie(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// CheckAuth returns the authenticated user's own document.
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	user, err := h.userService.GetUser(r.Context(), userID.Hex())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	var patch services.ProfilePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// ProfileResponse is a public user profile with derived counts.
type ProfileResponse struct {
	models.User
	FollowerCount  int  `json:"followerCount"`
	FollowingCount int  `json:"followingCount"`
	IsFollowing    bool `json:"isFollowing"`
}

type UserHandler struct {
	userService   *services.UserService
	followService *services.FollowService
}

func NewUserHandler(userService *services.UserService, followService *services.FollowService) *UserHandler {
	return &UserHandler{userService: userService, followService: followService}
}

// GetUser resolves a profile by id or username. The email is only
// returned to its owner.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	callerID, err := currentUserID(r)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	identifier := mux.Vars(r)["identifier"]
	user, err := h.userService.GetByIdentifier(r.Context(), identifier)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	isFollowing := false
	if user.ID != callerID {
		user.Email = ""
		isFollowing, err = h.followService.IsFollowing(r.Context(), callerID, user.ID)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		User:           user,
		FollowerCount:  len(user.Followers),
		FollowingCount: len(user.Following),
		IsFollowing:    isFollowing,
	})
}

func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUserID(r); err != nil {
		middleware.WriteError(w, err)
		return
	}

	users, err := h.userService.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "count": len(users)})
}
