package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/pulsefit/pulsefit-backend/internal/config"
	"github.com/pulsefit/pulsefit-backend/internal/database"
	"github.com/pulsefit/pulsefit-backend/internal/handlers"
	"github.com/pulsefit/pulsefit-backend/internal/middleware"
	"github.com/pulsefit/pulsefit-backend/internal/routes"
	"github.com/pulsefit/pulsefit-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Wire services
	services.InitProfileService(cfg)
	services.InitGenerator(cfg)
	services.InitBilling(cfg)
	services.InitEntitlements(cfg)
	handlers.Init(cfg)

	if cfg.HasAIProvider() {
		log.Println("✅ AI generation provider configured")
	} else {
		log.Println("⚠️  WARNING: no AI provider configured. Workout generation will fail.")
		log.Println("   Set OPENAI_API_KEY or ANTHROPIC_API_KEY.")
	}
	if cfg.StripeSecretKey == "" {
		log.Println("⚠️  WARNING: STRIPE_SECRET_KEY not set. Receipt-verified upgrades will be unavailable.")
	} else {
		log.Println("✅ Stripe billing configured")
	}
	if cfg.VerifySubAPIKey == "" || cfg.RevenueCatAPIKey == "" {
		log.Println("⚠️  WARNING: verification secrets missing. /api/verify-subscription will return 500.")
	} else {
		log.Println("✅ Subscription verification configured")
	}

	// Setup router
	r := chi.NewRouter()

	// Custom CORS: set headers and respond to OPTIONS with 200 so preflight never gets 403
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → GlobalRateLimit → GenerateRateLimit
	// Non-production: Redis-based rate limit only
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP + generation rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Setup routes
	routes.SetupRoutes(r)

	// Log registered routes for debugging
	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/generate-workout")
	log.Println("  POST /api/workouts")
	log.Println("  POST /api/save-workout")
	log.Println("  GET  /api/workouts")
	log.Println("  GET  /api/user")
	log.Println("  POST /api/upgrade")
	log.Println("  POST /api/verify-subscription")

	log.Printf("🚀 PulseFit backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
