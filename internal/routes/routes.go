package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/pulsefit/pulsefit-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Workout generation
	r.Post("/api/generate-workout", handlers.GenerateWorkout)

	// Workout history (legacy clients still post to /api/save-workout)
	r.Post("/api/workouts", handlers.SaveWorkout)
	r.Post("/api/save-workout", handlers.SaveWorkout)
	r.Get("/api/workouts", handlers.ListWorkouts)

	// Profile and upgrades
	r.Get("/api/user", handlers.GetUser)
	r.Post("/api/upgrade", handlers.UpgradeUser)

	// Server-to-server subscription reconciliation
	r.Post("/api/verify-subscription", handlers.VerifySubscription)
}
