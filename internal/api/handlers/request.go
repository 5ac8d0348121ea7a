package handlers

import (
	"net/http"
	"time"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/api/middlewares"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/timerange"
)

// authedUser recovers the caller's id from the context populated by the
// shared JWT middleware. On failure it writes the 401 itself.
func authedUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middlewares.UserID(r.Context())
	if !ok || userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return userID, true
}

// resolveRange reads the rangeType query parameter and resolves it to a
// concrete window anchored at now.
func resolveRange(w http.ResponseWriter, r *http.Request) (timerange.Window, bool) {
	tag := timerange.RangeType(r.URL.Query().Get("rangeType"))
	window, err := timerange.Resolve(tag, time.Now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return timerange.Window{}, false
	}
	return window, true
}
