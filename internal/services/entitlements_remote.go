package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pulsefit/pulsefit-backend/internal/config"
)

// subscriberCacheTTL matches the 600s edge-cache window advertised to the
// calling server via Cache-Control.
const subscriberCacheTTL = 600 * time.Second

const defaultRevenueCatBaseURL = "https://api.revenuecat.com/v1"

var (
	revenueCatBaseURL   = defaultRevenueCatBaseURL
	revenueCatKey       string
	entitlementsEnabled bool
	entitlementsHTTP    = &http.Client{Timeout: 10 * time.Second}
)

// InitEntitlements wires the entitlement provider key and base URL from
// configuration.
func InitEntitlements(cfg *config.Config) {
	revenueCatKey = cfg.RevenueCatAPIKey
	entitlementsEnabled = cfg.RevenueCatAPIKey != ""
	revenueCatBaseURL = defaultRevenueCatBaseURL
	if cfg.RevenueCatBaseURL != "" {
		revenueCatBaseURL = strings.TrimRight(cfg.RevenueCatBaseURL, "/")
	}
}

// EntitlementsConfigured reports whether the remote check can run at all.
func EntitlementsConfigured() bool {
	return entitlementsEnabled
}

// SubscriptionStatus is the reconciliation answer for a user: whether the
// billing provider currently considers them premium, when that entitlement
// lapses, and how many free generations remain today (null when premium).
type SubscriptionStatus struct {
	Premium               bool    `json:"premium"`
	EntitlementExpiration *string `json:"entitlementExpiration"`
	RemainingFreeWorkouts *int    `json:"remainingFreeWorkouts"`
}

type revenueCatSubscriber struct {
	Subscriber struct {
		Entitlements map[string]struct {
			ExpiresDate *string `json:"expires_date"`
		} `json:"entitlements"`
	} `json:"subscriber"`
}

// VerifySubscriptionStatus asks the entitlement provider directly whether
// the user holds an active premium entitlement, bypassing the local store
// so client-reported state can be reconciled against provider truth.
// Unknown subscribers and provider failures both degrade to "not premium"
// with the remaining free-workout count; only the local store erroring is a
// hard failure. Responses are cached for 600 seconds.
func VerifySubscriptionStatus(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	cacheKey := "verify-subscription:" + userID
	var cached SubscriptionStatus
	if hit, _ := cacheGet(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	status, err := fetchSubscriberStatus(ctx, userID)
	if err != nil {
		// Degraded path: provider unreachable is not a premium entitlement
		log.Printf("entitlements: provider check failed for %s: %v", userID, err)
		return makeNotPremium(ctx, userID)
	}

	if err := cacheSet(ctx, cacheKey, status, subscriberCacheTTL); err != nil {
		log.Printf("entitlements: failed to cache status for %s: %v", userID, err)
	}
	return status, nil
}

func fetchSubscriberStatus(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	endpoint := revenueCatBaseURL + "/subscribers/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+revenueCatKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := entitlementsHTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		// Unknown subscriber: treated as non-premium, not as an error
		return makeNotPremium(ctx, userID)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("entitlement provider returned %d", res.StatusCode)
	}

	var data revenueCatSubscriber
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}

	entitlement, ok := data.Subscriber.Entitlements["premium"]
	premium := false
	var expiration *string
	if ok {
		expiration = entitlement.ExpiresDate
		premium = true
		if expiration != nil {
			if exp, err := time.Parse(time.RFC3339, *expiration); err == nil {
				premium = exp.After(time.Now())
			}
		}
	}

	if !premium {
		st, err := makeNotPremium(ctx, userID)
		if st != nil {
			st.EntitlementExpiration = expiration
		}
		return st, err
	}

	return &SubscriptionStatus{
		Premium:               true,
		EntitlementExpiration: expiration,
	}, nil
}

func makeNotPremium(ctx context.Context, userID string) (*SubscriptionStatus, error) {
	remaining, err := RemainingFreeWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SubscriptionStatus{
		Premium:               false,
		RemainingFreeWorkouts: &remaining,
	}, nil
}
