package services

import (
	"context"

	"github.com/pulsefit/pulsefit-backend/internal/config"
	"github.com/pulsefit/pulsefit-backend/internal/models"
)

var (
	freeDailyLimit      = 1
	historyLimit        = 50
	premiumMonthlyPrice = "5.99"
	premiumAnnualPrice  = "59.99"
)

// InitProfileService wires tier limits and pricing from configuration.
func InitProfileService(cfg *config.Config) {
	freeDailyLimit = cfg.FreeDailyWorkoutLimit
	historyLimit = cfg.WorkoutHistoryLimit
	premiumMonthlyPrice = cfg.PremiumMonthlyPrice
	premiumAnnualPrice = cfg.PremiumAnnualPrice
}

// FreeDailyLimit returns the configured free-tier daily generation cap.
func FreeDailyLimit() int {
	return freeDailyLimit
}

// HistoryLimit returns the configured per-user history cap.
func HistoryLimit() int {
	return historyLimit
}

// GetProfile ensures the user exists and returns the stored profile.
func GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return GetStoredProfile(ctx, userID)
}

// AssertAccess rejects goal/equipment choices the profile's tier is not
// entitled to. The premium tier always passes.
func AssertAccess(profile *models.UserProfile, req *models.WorkoutRequest) error {
	if !IsGoalAllowed(profile.Tier, req.Goal) {
		return &TierLimitError{
			Message: "That goal is premium-only. Upgrade to unlock advanced goals.",
			Code:    CodeGoalRestricted,
		}
	}
	if !IsEquipmentAllowed(profile.Tier, req.Equipment) {
		return &TierLimitError{
			Message: "That equipment option requires premium access.",
			Code:    CodeEquipmentRestricted,
		}
	}
	return nil
}

// AssertQuota rejects the request when the free-tier daily quota is spent.
func AssertQuota(ctx context.Context, profile *models.UserProfile) error {
	if profile.IsPremium() {
		return nil
	}
	usage, err := GetUsageCount(ctx, profile.ID)
	if err != nil {
		return err
	}
	if ShouldBlockDailyUsage(profile.Tier, usage, freeDailyLimit) {
		return &TierLimitError{
			Message: "Free tier allows a limited number of workouts per day. Upgrade for unlimited sessions.",
			Code:    CodeDailyLimit,
		}
	}
	return nil
}

// RecordProfileUsage counts a generation against the daily quota.
// Premium usage is never counted.
func RecordProfileUsage(ctx context.Context, profile *models.UserProfile) error {
	if profile.IsPremium() {
		return nil
	}
	return RecordUsage(ctx, profile.ID)
}

// Upgrade persists the verified subscription record (when present), moves
// the tier to premium and returns the refreshed profile. Tier transitions
// only go free→premium; there is no downgrade path.
func Upgrade(ctx context.Context, userID string, record *models.SubscriptionRecord) (*models.UserProfile, error) {
	if record != nil {
		if err := SaveSubscription(ctx, userID, record); err != nil {
			return nil, err
		}
	}
	if err := SetTier(ctx, userID, models.TierPremium, record); err != nil {
		return nil, err
	}
	return GetStoredProfile(ctx, userID)
}

// RemainingFreeWorkouts returns how many generations are left today, never
// negative. Meaningless for premium profiles; callers serialize null there.
func RemainingFreeWorkouts(ctx context.Context, userID string) (int, error) {
	used, err := GetUsageCount(ctx, userID)
	if err != nil {
		return 0, err
	}
	remaining := freeDailyLimit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ProfileLimits is the per-tier limit block serialized to clients.
type ProfileLimits struct {
	DailyFreeWorkouts int      `json:"dailyFreeWorkouts"`
	AllowedGoals      []string `json:"allowedGoals"`
	AllowedEquipment  []string `json:"allowedEquipment"`
}

// ProfilePricing is the upgrade pricing table serialized to clients.
type ProfilePricing struct {
	Monthly string `json:"monthly"`
	Annual  string `json:"annual"`
}

// ProfileResponse is the client-facing view of a profile.
type ProfileResponse struct {
	ID                    string                     `json:"id"`
	Tier                  models.UserTier            `json:"tier"`
	Pricing               ProfilePricing             `json:"pricing"`
	RemainingFreeWorkouts *int                       `json:"remainingFreeWorkouts"`
	Limits                ProfileLimits              `json:"limits"`
	Subscription          *models.SubscriptionRecord `json:"subscription"`
}

// SerializeProfile builds the client view: tier, pricing, remaining free
// workouts for today (null when premium), the tier's allow-lists and the
// current subscription record (null when none).
func SerializeProfile(ctx context.Context, profile *models.UserProfile) (*ProfileResponse, error) {
	resp := &ProfileResponse{
		ID:   profile.ID,
		Tier: profile.Tier,
		Pricing: ProfilePricing{
			Monthly: premiumMonthlyPrice,
			Annual:  premiumAnnualPrice,
		},
		Limits: ProfileLimits{
			DailyFreeWorkouts: freeDailyLimit,
			AllowedGoals:      AllowedGoals(profile.Tier),
			AllowedEquipment:  AllowedEquipment(profile.Tier),
		},
	}

	if !profile.IsPremium() {
		remaining, err := RemainingFreeWorkouts(ctx, profile.ID)
		if err != nil {
			return nil, err
		}
		resp.RemainingFreeWorkouts = &remaining
	}

	sub, err := GetSubscription(ctx, profile.ID)
	if err != nil {
		return nil, err
	}
	resp.Subscription = sub

	return resp, nil
}
