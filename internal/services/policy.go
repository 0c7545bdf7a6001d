package services

import (
	"github.com/pulsefit/pulsefit-backend/internal/models"
)

// Free-tier allow-lists. This is the single source of truth: the policy
// gates below and the client-facing profile serialization both read from
// here so the two can never drift.
var (
	FreeAllowedGoals     = []string{"strength", "endurance"}
	FreeAllowedEquipment = []string{"bodyweight", "minimal"}
)

// Stable machine-readable codes carried by TierLimitError so clients can
// branch on the exact restriction that fired.
const (
	CodeGoalRestricted      = "goal_restricted"
	CodeEquipmentRestricted = "equipment_restricted"
	CodeDailyLimit          = "daily_limit"
	CodePremiumRequired     = "premium_required"
)

// TierLimitError is an expected policy violation, surfaced to clients as
// 403 with a stable code.
type TierLimitError struct {
	Message string
	Code    string
}

func (e *TierLimitError) Error() string {
	return e.Message
}

// IsGoalAllowed reports whether the tier may train toward the goal.
// Premium unlocks everything; free is limited to the allow-list.
func IsGoalAllowed(tier models.UserTier, goal string) bool {
	if tier == models.TierPremium {
		return true
	}
	return containsString(FreeAllowedGoals, goal)
}

// IsEquipmentAllowed reports whether the tier may use the equipment option.
func IsEquipmentAllowed(tier models.UserTier, equipment string) bool {
	if tier == models.TierPremium {
		return true
	}
	return containsString(FreeAllowedEquipment, equipment)
}

// ShouldBlockDailyUsage reports whether a new generation must be refused
// given the tier and the number of generations already recorded today.
func ShouldBlockDailyUsage(tier models.UserTier, usageCount, dailyFreeLimit int) bool {
	if tier == models.TierPremium {
		return false
	}
	return usageCount >= dailyFreeLimit
}

// AllowedGoals returns the goal list a tier may choose from.
func AllowedGoals(tier models.UserTier) []string {
	if tier == models.TierPremium {
		return models.GoalOptions
	}
	return FreeAllowedGoals
}

// AllowedEquipment returns the equipment list a tier may choose from.
func AllowedEquipment(tier models.UserTier) []string {
	if tier == models.TierPremium {
		return models.EquipmentOptions
	}
	return FreeAllowedEquipment
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
