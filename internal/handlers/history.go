package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pulsefit/pulsefit-backend/internal/models"
	"github.com/pulsefit/pulsefit-backend/internal/services"
)

// SaveWorkoutRequest is the payload for saving a generated session.
type SaveWorkoutRequest struct {
	UserID  string                `json:"userId"`
	Request models.WorkoutRequest `json:"request"`
	Plan    models.WorkoutPlan    `json:"plan"`
}

// SaveWorkout handles POST /api/workouts (and the legacy /api/save-workout
// route). Saving history is a premium feature; the record id and timestamp
// are synthesized server-side and the per-user list is trimmed to the cap
// on every append.
func SaveWorkout(w http.ResponseWriter, r *http.Request) {
	var req SaveWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fieldErrs := req.Request.Validate()
	if len(req.UserID) < 8 {
		fieldErrs["userId"] = "is required and must be at least 8 characters"
	}
	if err := req.Plan.Validate(); err != nil {
		fieldErrs["plan"] = err.Error()
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid payload",
			"details": fieldErrs,
		})
		return
	}

	ctx := r.Context()

	profile, err := services.GetProfile(ctx, req.UserID)
	if err != nil {
		log.Printf("save-workout: profile load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save workout")
		return
	}
	if !profile.IsPremium() {
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error": "Saving workout history requires premium access.",
			"code":  services.CodePremiumRequired,
		})
		return
	}

	record := &models.StoredWorkoutRecord{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Inputs:    req.Request,
		Output:    req.Plan,
	}

	if err := services.AppendHistory(ctx, req.UserID, record, services.HistoryLimit()); err != nil {
		log.Printf("save-workout: append failed for %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to save workout")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// ListWorkouts handles GET /api/workouts?userId=. Returns up to the history
// cap of records, most-recent-first. Read access stays open to any valid
// user id so lapsed subscribers keep their records.
func ListWorkouts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if len(userID) < 8 {
		writeError(w, http.StatusBadRequest, "userId is required and must be valid")
		return
	}

	records, err := services.ListHistory(r.Context(), userID, services.HistoryLimit())
	if err != nil {
		log.Printf("workouts: list failed for %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load workouts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": records})
}
