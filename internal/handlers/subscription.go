package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pulsefit/pulsefit-backend/internal/services"
)

// VerifySubscription handles POST /api/verify-subscription, a
// server-to-server reconciliation endpoint. Callers must present the shared
// secret in x-api-key; the answer comes from the entitlement provider, not
// the local store, and degrades to "not premium" when the provider cannot
// confirm an active entitlement.
func VerifySubscription(w http.ResponseWriter, r *http.Request) {
	if cfg == nil || cfg.VerifySubAPIKey == "" || !services.EntitlementsConfigured() {
		writeError(w, http.StatusInternalServerError, "Server misconfigured.")
		return
	}

	if r.Header.Get("x-api-key") != cfg.VerifySubAPIKey {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.UserID) < 3 {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	status, err := services.VerifySubscriptionStatus(r.Context(), body.UserID)
	if err != nil {
		log.Printf("verify-subscription: %v", err)
		writeError(w, http.StatusInternalServerError, "Unable to verify subscription")
		return
	}

	w.Header().Set("Cache-Control", "s-maxage=600")
	writeJSON(w, http.StatusOK, status)
}
