package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pulsefit/pulsefit-backend/internal/config"
)

var cfg *config.Config

// Init gives handlers access to the loaded configuration.
func Init(c *config.Config) {
	cfg = c
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
