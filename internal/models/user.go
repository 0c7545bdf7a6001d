package models

// UserTier is the subscription level gating feature access.
type UserTier string

const (
	TierFree    UserTier = "free"
	TierPremium UserTier = "premium"
)

// PlanInterval is the billing cadence of a premium subscription.
type PlanInterval string

const (
	PlanMonthly PlanInterval = "monthly"
	PlanAnnual  PlanInterval = "annual"
)

// UserProfile is the server-side view of a user. IDs are opaque,
// client-generated, and never reused across devices once stored.
// Settings holds the last successful generation request, if any.
type UserProfile struct {
	ID        string          `json:"id"`
	Tier      UserTier        `json:"tier"`
	CreatedAt string          `json:"created_at"`
	Settings  *WorkoutRequest `json:"settings,omitempty"`
}

// IsPremium reports whether the profile currently holds the premium tier.
func (p *UserProfile) IsPremium() bool {
	return p.Tier == TierPremium
}

// SubscriptionRecord is the normalized result of a verified purchase.
// It is written wholesale on each upgrade; no history is kept.
type SubscriptionRecord struct {
	Provider    string       `json:"provider"`
	Plan        PlanInterval `json:"plan"`
	ReceiptID   string       `json:"receipt_id"`
	Amount      int64        `json:"amount"`
	Currency    string       `json:"currency"`
	PurchasedAt string       `json:"purchased_at"`
	ExpiresAt   string       `json:"expires_at"`
}
