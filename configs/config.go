package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

// Publish controls the Graph API container protocol.
type Publish struct {
	GraphBaseURL   string
	HTTPTimeout    time.Duration
	PollAttempts   int
	PollInterval   time.Duration
	PollMultiplier float64
	QuotaCheck     bool
}

// Scheduler controls the background dispatcher and the claim sweep.
type Scheduler struct {
	Spec         string
	BatchSize    int
	SweepSpec    string
	ClaimTimeout time.Duration
}

type Config struct {
	Port        string
	PostgresURI string
	RedisURI    string
	FrontendURL string
	SecretKey   string
	CookieName  string
	R2          R2
	Publish     Publish
	Scheduler   Scheduler
}

func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "3000"),
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", ""),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		SecretKey:   getEnv("SECRET_KEY", ""),
		CookieName:  getEnv("COOKIE_NAME", "igscheduler_session"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("MEDIA_PUBLIC_URL", ""),
		},
		Publish: Publish{
			GraphBaseURL:   getEnv("GRAPH_BASE_URL", "https://graph.facebook.com/v24.0"),
			HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
			PollAttempts:   getEnvInt("PUBLISH_POLL_ATTEMPTS", 10),
			PollInterval:   getEnvDuration("PUBLISH_POLL_INTERVAL", 5*time.Second),
			PollMultiplier: getEnvFloat("PUBLISH_POLL_MULTIPLIER", 1),
			QuotaCheck:     getEnvBool("QUOTA_CHECK", false),
		},
		Scheduler: Scheduler{
			Spec:         getEnv("SCHEDULER_SPEC", "@every 1m"),
			BatchSize:    getEnvInt("SCHEDULER_BATCH_SIZE", 10),
			SweepSpec:    getEnv("SWEEP_SPEC", "@every 10m"),
			ClaimTimeout: getEnvDuration("CLAIM_TIMEOUT", 15*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("5s", "1m30s"); zero is allowed so
// polling can be disabled in local setups.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil && value >= 0 {
		return value
	}
	return defaultValue
}
