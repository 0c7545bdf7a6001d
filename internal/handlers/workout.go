package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pulsefit/pulsefit-backend/internal/models"
	"github.com/pulsefit/pulsefit-backend/internal/services"
)

// GenerateWorkout handles POST /api/generate-workout. The request walks
// Validate → AuthorizeAccess → AuthorizeQuota → Generate → ValidateOutput →
// RecordUsage&PersistSettings → Respond; tier violations stop the flow
// before any provider call is made.
func GenerateWorkout(w http.ResponseWriter, r *http.Request) {
	var req models.WorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fieldErrs := req.Validate()
	if req.UserID == "" {
		fieldErrs["userId"] = "is required"
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request",
			"details": fieldErrs,
		})
		return
	}

	ctx := r.Context()

	profile, err := services.GetProfile(ctx, req.UserID)
	if err != nil {
		log.Printf("generate-workout: profile load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate workout")
		return
	}

	if err := services.AssertAccess(profile, &req); err != nil {
		writeTierError(w, err)
		return
	}
	if err := services.AssertQuota(ctx, profile); err != nil {
		var tierErr *services.TierLimitError
		if errors.As(err, &tierErr) {
			writeTierError(w, err)
			return
		}
		log.Printf("generate-workout: quota check failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate workout")
		return
	}

	prompt := services.BuildWorkoutPrompt(&req)
	raw, err := services.GeneratePlanText(ctx, prompt)
	if err != nil {
		log.Printf("generate-workout: generation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate workout")
		return
	}

	plan, err := parsePlan(raw)
	if err != nil {
		log.Printf("generate-workout: %v", err)
		writeError(w, http.StatusInternalServerError, "AI response did not match schema")
		return
	}

	// The plan is already paid for; bookkeeping failures must not discard it
	if err := services.RecordProfileUsage(ctx, profile); err != nil {
		log.Printf("generate-workout: failed to record usage for %s: %v", profile.ID, err)
	}
	if err := services.SaveSettings(ctx, req.UserID, &req); err != nil {
		log.Printf("generate-workout: failed to persist settings for %s: %v", profile.ID, err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"request": req,
		"plan":    plan,
	})
}

// parsePlan requires the provider's raw text to be valid JSON conforming
// exactly to the plan schema; a partial match is never accepted.
func parsePlan(raw string) (*models.WorkoutPlan, error) {
	var plan models.WorkoutPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return nil, errors.New("AI response was not valid JSON")
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

func writeTierError(w http.ResponseWriter, err error) {
	var tierErr *services.TierLimitError
	if !errors.As(err, &tierErr) {
		writeError(w, http.StatusInternalServerError, "Unexpected error")
		return
	}
	writeJSON(w, http.StatusForbidden, map[string]string{
		"error": tierErr.Message,
		"code":  tierErr.Code,
	})
}
