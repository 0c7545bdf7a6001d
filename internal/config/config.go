package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	RedisURI       string
	Port           string
	FrontendURL    string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	Environment    string   // ENV: production, development, etc.

	// AI generation providers. OpenAI is tried first, Anthropic is the fallback.
	// Base URLs are overridable so the service can sit behind an API proxy.
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	AnthropicKey     string
	AnthropicModel   string
	AnthropicBaseURL string

	// Billing and entitlement providers.
	StripeSecretKey   string
	RevenueCatAPIKey  string
	RevenueCatBaseURL string
	VerifySubAPIKey   string // shared secret for the server-to-server verify endpoint

	// Tier limits and pricing shown to clients.
	FreeDailyWorkoutLimit int
	WorkoutHistoryLimit   int
	PremiumMonthlyPrice   string
	PremiumAnnualPrice    string
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	// CORS: allow multiple origins so mobile webviews and local dev both work
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		RedisURI:       getEnv("REDIS_URI", "redis://localhost:6379/0"),
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins: allowedOrigins,
		Environment:    env,

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),

		StripeSecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
		RevenueCatAPIKey:  getEnv("REVENUECAT_API_KEY", ""),
		RevenueCatBaseURL: getEnv("REVENUECAT_BASE_URL", ""),
		VerifySubAPIKey:   getEnv("VERIFY_SUBSCRIPTION_API_KEY", ""),

		FreeDailyWorkoutLimit: getEnvInt("FREE_DAILY_WORKOUT_LIMIT", 1),
		WorkoutHistoryLimit:   getEnvInt("WORKOUT_HISTORY_LIMIT", 50),
		PremiumMonthlyPrice:   getEnv("PREMIUM_MONTHLY_PRICE", "5.99"),
		PremiumAnnualPrice:    getEnv("PREMIUM_ANNUAL_PRICE", "59.99"),
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// HasAIProvider reports whether at least one generation provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.OpenAIAPIKey != "" || c.AnthropicKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
