package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"citypulse/db"
	"citypulse/utils/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID reads the authenticated user id the JWT middleware put
// on the request context.
func currentUserID(r *http.Request) (primitive.ObjectID, error) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		return primitive.NilObjectID, errors.ErrUnauthorized
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, errors.ErrUnauthorized
	}
	return objID, nil
}

// pagination reads ?page= and ?limit= query params into skip/limit.
func pagination(r *http.Request, defaultLimit int64) (skip, limit int64) {
	page, _ := strconv.ParseInt(r.URL.Query().Get("page"), 10, 64)
	lim, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)
	return db.Page(page, lim, defaultLimit)
}

func pathID(value string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, errors.Invalid("Invalid id")
	}
	return objID, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
