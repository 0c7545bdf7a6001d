package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsefit/pulsefit-backend/internal/database"
	"github.com/pulsefit/pulsefit-backend/internal/models"
)

const (
	// UserKeyPrefix is the Redis key prefix for user profile hashes
	UserKeyPrefix = "users:"
	// UsageKeyPrefix is the Redis key prefix for daily generation counters
	UsageKeyPrefix = "usage:"
	// WorkoutsKeyPrefix is the Redis key prefix for per-user history lists
	WorkoutsKeyPrefix = "workouts:"
	// SubscriptionKeyPrefix is the Redis key prefix for subscription records
	SubscriptionKeyPrefix = "subscription:"

	storeRetries    = 3
	storeRetryDelay = 250 * time.Millisecond
)

// nowFunc is swapped out in tests to control the usage-counter date key.
var nowFunc = time.Now

func userKey(userID string) string {
	return UserKeyPrefix + userID
}

func workoutsKey(userID string) string {
	return WorkoutsKeyPrefix + userID
}

func subscriptionKey(userID string) string {
	return SubscriptionKeyPrefix + userID
}

// usageKey rotates daily: the UTC calendar date is part of the key, so a
// new day starts at zero without any scheduled reset.
func usageKey(userID string) string {
	today := nowFunc().UTC().Format("2006-01-02")
	return UsageKeyPrefix + userID + ":" + today
}

func secondsUntilUTCMidnight() time.Duration {
	now := nowFunc().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return tomorrow.Sub(now)
}

// withRetry runs fn up to storeRetries times with linear backoff. Only used
// for idempotent reads and the INCR, which is safe to retry because a
// failed reply leaves the counter either bumped or not; a duplicate bump
// only makes the quota stricter, never looser.
func withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < storeRetries; attempt++ {
		if err = fn(); err == nil || err == redis.Nil {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * storeRetryDelay)
	}
	return err
}

// EnsureUser lazily creates the profile hash with tier=free. Idempotent:
// a second call for the same id is a no-op. Returns the profile key.
func EnsureUser(ctx context.Context, userID string) (string, error) {
	key := userKey(userID)

	var existing string
	err := withRetry(func() error {
		var e error
		existing, e = database.RedisClient.HGet(ctx, key, "id").Result()
		return e
	})
	if err != nil && err != redis.Nil {
		return "", err
	}
	if existing != "" {
		return key, nil
	}

	now := nowFunc().UTC().Format(time.RFC3339)
	err = database.RedisClient.HSet(ctx, key, map[string]interface{}{
		"id":         userID,
		"tier":       string(models.TierFree),
		"created_at": now,
		"updated_at": now,
	}).Err()
	if err != nil {
		return "", err
	}
	return key, nil
}

// GetStoredProfile reads the profile hash. The tier defaults to free unless
// the stored value is the literal "premium"; anything else never grants
// access. Settings that fail to parse are dropped silently.
func GetStoredProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	key, err := EnsureUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var fields map[string]string
	err = withRetry(func() error {
		var e error
		fields, e = database.RedisClient.HGetAll(ctx, key).Result()
		return e
	})
	if err != nil {
		return nil, err
	}

	tier := models.TierFree
	if fields["tier"] == string(models.TierPremium) {
		tier = models.TierPremium
	}

	createdAt := fields["created_at"]
	if createdAt == "" {
		createdAt = nowFunc().UTC().Format(time.RFC3339)
	}

	profile := &models.UserProfile{
		ID:        userID,
		Tier:      tier,
		CreatedAt: createdAt,
	}

	if raw := fields["settings"]; raw != "" {
		var settings models.WorkoutRequest
		if json.Unmarshal([]byte(raw), &settings) == nil {
			profile.Settings = &settings
		}
	}

	return profile, nil
}

// SetTier writes the tier and updated_at, optionally stamping subscription
// metadata (plan interval, expiry, last receipt id) onto the profile hash.
func SetTier(ctx context.Context, userID string, tier models.UserTier, sub *models.SubscriptionRecord) error {
	key, err := EnsureUser(ctx, userID)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{
		"tier":       string(tier),
		"updated_at": nowFunc().UTC().Format(time.RFC3339),
	}
	if sub != nil {
		fields["plan"] = string(sub.Plan)
		fields["expires_at"] = sub.ExpiresAt
		fields["last_receipt_id"] = sub.ReceiptID
	}
	return database.RedisClient.HSet(ctx, key, fields).Err()
}

// RecordUsage atomically increments today's counter. The first increment
// of a day sets the TTL so the counter disappears after UTC midnight.
func RecordUsage(ctx context.Context, userID string) error {
	key := usageKey(userID)

	var next int64
	err := withRetry(func() error {
		var e error
		next, e = database.RedisClient.Incr(ctx, key).Result()
		return e
	})
	if err != nil {
		return err
	}

	if next == 1 {
		if err := database.RedisClient.Expire(ctx, key, secondsUntilUTCMidnight()).Err(); err != nil {
			// Counter still rotates out when the date key changes tomorrow
			log.Printf("entitlement: failed to set usage TTL for %s: %v", userID, err)
		}
	}
	return nil
}

// GetUsageCount reads today's counter, 0 when absent or expired.
func GetUsageCount(ctx context.Context, userID string) (int, error) {
	key := usageKey(userID)

	var count int
	err := withRetry(func() error {
		var e error
		count, e = database.RedisClient.Get(ctx, key).Int()
		return e
	})
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SaveSubscription overwrites the user's subscription record wholesale.
func SaveSubscription(ctx context.Context, userID string, record *models.SubscriptionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, subscriptionKey(userID), data, 0).Err()
}

// GetSubscription returns the stored record, or nil when none exists.
func GetSubscription(ctx context.Context, userID string) (*models.SubscriptionRecord, error) {
	var raw string
	err := withRetry(func() error {
		var e error
		raw, e = database.RedisClient.Get(ctx, subscriptionKey(userID)).Result()
		return e
	})
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record models.SubscriptionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// SaveSettings stores the last successful generation request on the profile.
func SaveSettings(ctx context.Context, userID string, req *models.WorkoutRequest) error {
	key, err := EnsureUser(ctx, userID)
	if err != nil {
		return err
	}

	settings := *req
	settings.UserID = "" // settings are already scoped by the profile key
	data, err := json.Marshal(&settings)
	if err != nil {
		return err
	}
	return database.RedisClient.HSet(ctx, key, map[string]interface{}{
		"settings":   string(data),
		"updated_at": nowFunc().UTC().Format(time.RFC3339),
	}).Err()
}

// AppendHistory pushes a record to the head of the user's history list and
// trims in the same pipeline. LPUSH + LTRIM keeps the newest
// limit records.
func AppendHistory(ctx context.Context, userID string, record *models.StoredWorkoutRecord, limit int) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	key := workoutsKey(userID)
	pipe := database.RedisClient.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(limit)-1)
	_, err = pipe.Exec(ctx)
	return err
}

// ListHistory returns up to limit records, most-recent-first. Entries that
// fail to parse are skipped.
func ListHistory(ctx context.Context, userID string, limit int) ([]models.StoredWorkoutRecord, error) {
	key := workoutsKey(userID)

	var raw []string
	err := withRetry(func() error {
		var e error
		raw, e = database.RedisClient.LRange(ctx, key, 0, int64(limit)-1).Result()
		return e
	})
	if err != nil {
		return nil, err
	}

	records := make([]models.StoredWorkoutRecord, 0, len(raw))
	for _, item := range raw {
		var rec models.StoredWorkoutRecord
		if json.Unmarshal([]byte(item), &rec) != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
