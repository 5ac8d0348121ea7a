package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/logs"
)

// Error classes: validation (4xx, field detail), not-found (404), and
// external-dependency failures (5xx, generic message). Nothing here is
// fatal to the process.

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logs.Logger.Errorf("encode response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondValidation(w http.ResponseWriter, problems []string) {
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":    "validation failed",
		"problems": problems,
	})
}
