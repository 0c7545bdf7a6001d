package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pulsefit/pulsefit-backend/internal/config"
)

func verifyConfig(t *testing.T, entitlementsURL string) *config.Config {
	t.Helper()
	cfg := baseConfig()
	cfg.VerifySubAPIKey = "shared-secret"
	cfg.RevenueCatAPIKey = "rc-test"
	cfg.RevenueCatBaseURL = entitlementsURL
	return cfg
}

func postVerify(t *testing.T, router *chi.Mux, apiKey, userID string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"userId": userID})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/verify-subscription", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestVerifySubscriptionUnconfigured(t *testing.T) {
	_, router := newTestEnv(t, baseConfig())

	rec := postVerify(t, router, "anything", "user-vs-001")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestVerifySubscriptionBadAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("provider must not be called on auth failure")
	}))
	defer server.Close()
	_, router := newTestEnv(t, verifyConfig(t, server.URL))

	rec := postVerify(t, router, "wrong-secret", "user-vs-002")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestVerifySubscriptionInvalidUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()
	_, router := newTestEnv(t, verifyConfig(t, server.URL))

	rec := postVerify(t, router, "shared-secret", "ab")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestVerifySubscriptionActivePremium(t *testing.T) {
	expires := time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"subscriber":{"entitlements":{"premium":{"expires_date":%q}}}}`, expires)
	}))
	defer server.Close()
	_, router := newTestEnv(t, verifyConfig(t, server.URL))

	rec := postVerify(t, router, "shared-secret", "user-vs-003")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Cache-Control"); got != "s-maxage=600" {
		t.Errorf("Cache-Control = %q", got)
	}

	body := decodeBody(t, rec)
	if body["premium"] != true {
		t.Errorf("premium = %v", body["premium"])
	}
	if body["entitlementExpiration"] != expires {
		t.Errorf("entitlementExpiration = %v", body["entitlementExpiration"])
	}
}

func TestVerifySubscriptionProviderDownDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	_, router := newTestEnv(t, verifyConfig(t, server.URL))

	rec := postVerify(t, router, "shared-secret", "user-vs-004")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["premium"] != false {
		t.Errorf("premium = %v, provider failure must degrade to free", body["premium"])
	}
	if body["remainingFreeWorkouts"] != float64(1) {
		t.Errorf("remainingFreeWorkouts = %v", body["remainingFreeWorkouts"])
	}
}
