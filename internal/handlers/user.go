package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pulsefit/pulsefit-backend/internal/models"
	"github.com/pulsefit/pulsefit-backend/internal/services"
)

// GetUser handles GET /api/user?userId=. Lazily creates the profile on
// first sight of an id and returns the serialized client view.
func GetUser(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if len(userID) < 8 {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	ctx := r.Context()
	profile, err := services.GetProfile(ctx, userID)
	if err != nil {
		log.Printf("user: profile load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}

	resp, err := services.SerializeProfile(ctx, profile)
	if err != nil {
		log.Printf("user: serialize failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpgradeRequest is the receipt-verified upgrade payload. The claimed tier
// never comes from the client; only a provider-verified receipt moves a
// profile to premium.
type UpgradeRequest struct {
	UserID   string              `json:"userId"`
	Provider string              `json:"provider"`
	Plan     models.PlanInterval `json:"plan"`
	Receipt  string              `json:"receipt"`
}

// UpgradeUser handles POST /api/upgrade.
func UpgradeUser(w http.ResponseWriter, r *http.Request) {
	var req UpgradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fieldErrs := make(map[string]string)
	if len(req.UserID) < 8 {
		fieldErrs["userId"] = "is required and must be at least 8 characters"
	}
	if req.Provider == "" {
		fieldErrs["provider"] = "is required"
	}
	if req.Plan != models.PlanMonthly && req.Plan != models.PlanAnnual {
		fieldErrs["plan"] = "must be monthly or annual"
	}
	if req.Receipt == "" {
		fieldErrs["receipt"] = "is required"
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid payload",
			"details": fieldErrs,
		})
		return
	}

	record, err := services.VerifyReceipt(req.Provider, req.Receipt, req.Plan)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedProvider):
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Unsupported billing provider",
				"code":  "unsupported_provider",
			})
		case errors.Is(err, services.ErrReceiptNotPaid):
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "Receipt is not paid",
				"code":  "receipt_not_paid",
			})
		case errors.Is(err, services.ErrBillingNotConfigured):
			log.Printf("upgrade: %v", err)
			writeError(w, http.StatusInternalServerError, "Billing is not configured")
		default:
			log.Printf("upgrade: receipt verification failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to upgrade user")
		}
		return
	}

	ctx := r.Context()
	profile, err := services.Upgrade(ctx, req.UserID, record)
	if err != nil {
		log.Printf("upgrade: failed for %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to upgrade user")
		return
	}

	resp, err := services.SerializeProfile(ctx, profile)
	if err != nil {
		log.Printf("upgrade: serialize failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to upgrade user")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
