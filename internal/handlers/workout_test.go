package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pulsefit/pulsefit-backend/internal/config"
	"github.com/pulsefit/pulsefit-backend/internal/models"
	"github.com/pulsefit/pulsefit-backend/internal/services"
)

var planFixtureJSON = `{
	"summary": "45-minute medium strength session",
	"totalDurationMinutes": 45,
	"warmup": ["2 min easy cardio"],
	"cooldown": ["hamstring stretch"],
	"finisher": [],
	"metrics": {"intensity": "medium", "rpeTarget": "7/10"},
	"blocks": [
		{"id": "block-1", "title": "Main Strength", "focus": "lower body",
		 "durationMinutes": 25, "instructions": "Rest 90s between sets", "timerSeconds": 1500,
		 "exercises": [{"id": "ex-1", "name": "Goblet Squat", "prescription": "4x8", "notes": []}], "tips": []},
		{"id": "block-2", "title": "Accessory", "focus": "core",
		 "durationMinutes": 15, "instructions": "Circuit style", "timerSeconds": 900,
		 "exercises": [{"id": "ex-2", "name": "Plank", "prescription": "3x45s", "notes": []}], "tips": []}
	]
}`

// fakeOpenAI serves the chat-completions shape with the given content and
// counts the calls it receives.
func fakeOpenAI(t *testing.T, content string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	encoded, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%s}}]}`, encoded)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func generatorConfig(server *httptest.Server) *config.Config {
	cfg := baseConfig()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.OpenAIModel = "gpt-4o-mini"
	cfg.OpenAIBaseURL = server.URL
	return cfg
}

func TestGenerateWorkoutFreeUserHappyPath(t *testing.T) {
	server, calls := fakeOpenAI(t, planFixtureJSON)
	_, router := newTestEnv(t, generatorConfig(server))

	rec := doJSON(t, router, "POST", "/api/generate-workout", map[string]interface{}{
		"time": 45, "intensity": "medium", "goal": "strength",
		"equipment": "bodyweight", "userId": "user-free-001",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if *calls != 1 {
		t.Errorf("provider calls = %d, want 1", *calls)
	}

	body := decodeBody(t, rec)
	plan, ok := body["plan"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no plan: %v", body)
	}
	if plan["summary"] != "45-minute medium strength session" {
		t.Errorf("plan summary = %v", plan["summary"])
	}

	ctx := context.Background()
	usage, err := services.GetUsageCount(ctx, "user-free-001")
	if err != nil {
		t.Fatalf("GetUsageCount error = %v", err)
	}
	if usage != 1 {
		t.Errorf("usage = %d, want 1", usage)
	}

	profile, err := services.GetStoredProfile(ctx, "user-free-001")
	if err != nil {
		t.Fatalf("GetStoredProfile error = %v", err)
	}
	if profile.Settings == nil || profile.Settings.Goal != "strength" {
		t.Errorf("settings not persisted: %+v", profile.Settings)
	}
}

func TestGenerateWorkoutRestrictedGoalSkipsProvider(t *testing.T) {
	server, calls := fakeOpenAI(t, planFixtureJSON)
	_, router := newTestEnv(t, generatorConfig(server))

	rec := doJSON(t, router, "POST", "/api/generate-workout", map[string]interface{}{
		"time": 45, "intensity": "medium", "goal": "hypertrophy",
		"equipment": "bodyweight", "userId": "user-free-002",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["code"] != services.CodeGoalRestricted {
		t.Errorf("code = %v", body["code"])
	}
	if *calls != 0 {
		t.Errorf("provider calls = %d, want 0", *calls)
	}

	usage, err := services.GetUsageCount(context.Background(), "user-free-002")
	if err != nil {
		t.Fatalf("GetUsageCount error = %v", err)
	}
	if usage != 0 {
		t.Errorf("usage = %d, rejected request must not consume quota", usage)
	}
}

func TestGenerateWorkoutDailyLimitExhausted(t *testing.T) {
	server, calls := fakeOpenAI(t, planFixtureJSON)
	_, router := newTestEnv(t, generatorConfig(server))

	ctx := context.Background()
	if _, err := services.EnsureUser(ctx, "user-free-003"); err != nil {
		t.Fatalf("EnsureUser error = %v", err)
	}
	if err := services.RecordUsage(ctx, "user-free-003"); err != nil {
		t.Fatalf("RecordUsage error = %v", err)
	}

	rec := doJSON(t, router, "POST", "/api/generate-workout", map[string]interface{}{
		"time": 45, "intensity": "medium", "goal": "strength",
		"equipment": "bodyweight", "userId": "user-free-003",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["code"] != services.CodeDailyLimit {
		t.Errorf("code = %v", body["code"])
	}
	if *calls != 0 {
		t.Errorf("provider calls = %d, want 0", *calls)
	}
}

func TestGenerateWorkoutPremiumSkipsQuota(t *testing.T) {
	server, _ := fakeOpenAI(t, planFixtureJSON)
	_, router := newTestEnv(t, generatorConfig(server))

	ctx := context.Background()
	if _, err := services.Upgrade(ctx, "user-prem-001", nil); err != nil {
		t.Fatalf("Upgrade error = %v", err)
	}

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, "POST", "/api/generate-workout", map[string]interface{}{
			"time": 45, "intensity": "high", "goal": "hypertrophy",
			"equipment": "full_gym", "userId": "user-prem-001",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, body = %s", i, rec.Code, rec.Body.String())
		}
	}

	usage, err := services.GetUsageCount(ctx, "user-prem-001")
	if err != nil {
		t.Fatalf("GetUsageCount error = %v", err)
	}
	if usage != 0 {
		t.Errorf("usage = %d, premium generations must not be counted", usage)
	}
}

func TestGenerateWorkoutMissingUserID(t *testing.T) {
	server, calls := fakeOpenAI(t, planFixtureJSON)
	_, router := newTestEnv(t, generatorConfig(server))

	rec := doJSON(t, router, "POST", "/api/generate-workout", map[string]interface{}{
		"time": 45, "intensity": "medium", "goal": "strength", "equipment": "bodyweight",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	details, ok := body["details"].(map[string]interface{})
	if !ok {
		t.Fatalf("no details in %v", body)
	}
	if _, ok := details["userId"]; !ok {
		t.Errorf("details = %v, want userId error", details)
	}
	if *calls != 0 {
		t.Errorf("provider calls = %d, want 0", *calls)
	}
}

func TestGenerateWorkoutMalformedBody(t *testing.T) {
	server, _ := fakeOpenAI(t, planFixtureJSON)
	_, router := newTestEnv(t, generatorConfig(server))

	rec := doJSON(t, router, "POST", "/api/generate-workout", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateWorkoutRejectsOffSchemaResponse(t *testing.T) {
	server, _ := fakeOpenAI(t, `{"summary":"too thin","totalDurationMinutes":45}`)
	_, router := newTestEnv(t, generatorConfig(server))

	rec := doJSON(t, router, "POST", "/api/generate-workout", map[string]interface{}{
		"time": 45, "intensity": "medium", "goal": "strength",
		"equipment": "bodyweight", "userId": "user-free-004",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["error"] != "AI response did not match schema" {
		t.Errorf("error = %v", body["error"])
	}

	usage, err := services.GetUsageCount(context.Background(), "user-free-004")
	if err != nil {
		t.Fatalf("GetUsageCount error = %v", err)
	}
	if usage != 0 {
		t.Errorf("usage = %d, failed generation must not consume quota", usage)
	}
}

func TestGenerateWorkoutMethodNotAllowed(t *testing.T) {
	server, _ := fakeOpenAI(t, planFixtureJSON)
	_, router := newTestEnv(t, generatorConfig(server))

	rec := doJSON(t, router, "GET", "/api/generate-workout", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func planFixture(t *testing.T) models.WorkoutPlan {
	t.Helper()
	var plan models.WorkoutPlan
	if err := json.Unmarshal([]byte(planFixtureJSON), &plan); err != nil {
		t.Fatalf("unmarshal plan fixture: %v", err)
	}
	return plan
}
