package services

import (
	"errors"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"

	"github.com/pulsefit/pulsefit-backend/internal/config"
	"github.com/pulsefit/pulsefit-backend/internal/models"
)

var (
	// ErrBillingNotConfigured means STRIPE_SECRET_KEY is unset.
	ErrBillingNotConfigured = errors.New("billing is not configured, set STRIPE_SECRET_KEY")
	// ErrUnsupportedProvider means the receipt names a provider we don't verify.
	ErrUnsupportedProvider = errors.New("unsupported billing provider")
	// ErrReceiptNotPaid means the referenced checkout session was never paid.
	ErrReceiptNotPaid = errors.New("checkout session is not paid")
)

var billingConfigured bool

// InitBilling wires the Stripe API key from configuration. Verification is
// refused (not faked) when the key is missing.
func InitBilling(cfg *config.Config) {
	stripe.Key = cfg.StripeSecretKey
	billingConfigured = cfg.StripeSecretKey != ""
}

// VerifyReceipt exchanges a provider receipt token for a normalized
// subscription record. This is the only place external trust enters the
// system: client-submitted tier claims are never honored directly, only a
// receipt the provider confirms as paid.
func VerifyReceipt(provider, receipt string, plan models.PlanInterval) (*models.SubscriptionRecord, error) {
	switch provider {
	case "stripe":
		return verifyStripeReceipt(receipt, plan)
	default:
		return nil, ErrUnsupportedProvider
	}
}

func verifyStripeReceipt(receiptID string, plan models.PlanInterval) (*models.SubscriptionRecord, error) {
	if !billingConfigured {
		return nil, ErrBillingNotConfigured
	}

	sess, err := session.Get(receiptID, nil)
	if err != nil {
		return nil, err
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, ErrReceiptNotPaid
	}

	purchasedAt := time.Now().UTC()
	return &models.SubscriptionRecord{
		Provider:    "stripe",
		Plan:        plan,
		ReceiptID:   sess.ID,
		Amount:      sess.AmountTotal,
		Currency:    string(sess.Currency),
		PurchasedAt: purchasedAt.Format(time.RFC3339),
		ExpiresAt:   subscriptionExpiry(purchasedAt, plan).Format(time.RFC3339),
	}, nil
}

// subscriptionExpiry uses calendar arithmetic: same day next month or next
// year, not a fixed 30/365-day window.
func subscriptionExpiry(purchasedAt time.Time, plan models.PlanInterval) time.Time {
	if plan == models.PlanAnnual {
		return purchasedAt.AddDate(1, 0, 0)
	}
	return purchasedAt.AddDate(0, 1, 0)
}
