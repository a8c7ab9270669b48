package handler

import (
	"encoding/json"
	"net/http"

	"reviewhub/internal/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// userID pulls the authenticated user id out of the request context.
func userID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(middleware.UserContextKey).(string)
	return id, ok && id != ""
}
