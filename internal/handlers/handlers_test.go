package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/pulsefit/pulsefit-backend/internal/config"
	"github.com/pulsefit/pulsefit-backend/internal/database"
	"github.com/pulsefit/pulsefit-backend/internal/handlers"
	"github.com/pulsefit/pulsefit-backend/internal/routes"
	"github.com/pulsefit/pulsefit-backend/internal/services"
)

func baseConfig() *config.Config {
	return &config.Config{
		Environment:           "test",
		FreeDailyWorkoutLimit: 1,
		WorkoutHistoryLimit:   50,
		PremiumMonthlyPrice:   "5.99",
		PremiumAnnualPrice:    "59.99",
	}
}

// newTestEnv stands up the full route table against an in-memory Redis and
// wires every service from cfg.
func newTestEnv(t *testing.T, cfg *config.Config) (*miniredis.Miniredis, *chi.Mux) {
	t.Helper()

	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		database.RedisClient.Close()
		database.RedisClient = nil
	})

	handlers.Init(cfg)
	services.InitProfileService(cfg)
	services.InitGenerator(cfg)
	services.InitEntitlements(cfg)
	services.InitBilling(cfg)
	t.Cleanup(func() {
		empty := &config.Config{FreeDailyWorkoutLimit: 1, WorkoutHistoryLimit: 50}
		handlers.Init(empty)
		services.InitGenerator(empty)
		services.InitEntitlements(empty)
		services.InitBilling(empty)
	})

	router := chi.NewRouter()
	routes.SetupRoutes(router)
	return mr, router
}

func doJSON(t *testing.T, router *chi.Mux, method, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if s, ok := payload.(string); ok {
			body.WriteString(s)
		} else if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
