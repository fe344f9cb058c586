package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"PUBLISH_POLL_ATTEMPTS", "PUBLISH_POLL_INTERVAL", "SCHEDULER_SPEC", "SCHEDULER_BATCH_SIZE", "QUOTA_CHECK"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.Publish.PollAttempts != 10 {
		t.Errorf("PollAttempts = %d, want 10", cfg.Publish.PollAttempts)
	}
	if cfg.Publish.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.Publish.PollInterval)
	}
	if cfg.Scheduler.Spec != "@every 1m" {
		t.Errorf("Scheduler.Spec = %q, want @every 1m", cfg.Scheduler.Spec)
	}
	if cfg.Scheduler.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.Scheduler.BatchSize)
	}
	if cfg.Publish.QuotaCheck {
		t.Error("expected quota check to be off by default")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PUBLISH_POLL_ATTEMPTS", "3")
	t.Setenv("PUBLISH_POLL_INTERVAL", "0s")
	t.Setenv("SCHEDULER_BATCH_SIZE", "25")
	t.Setenv("QUOTA_CHECK", "true")
	t.Setenv("CLAIM_TIMEOUT", "not-a-duration")

	cfg := LoadConfig()

	if cfg.Publish.PollAttempts != 3 {
		t.Errorf("PollAttempts = %d, want 3", cfg.Publish.PollAttempts)
	}
	if cfg.Publish.PollInterval != 0 {
		t.Errorf("PollInterval = %v, want 0", cfg.Publish.PollInterval)
	}
	if cfg.Scheduler.BatchSize != 25 {
		t.Errorf("BatchSize = %d, want 25", cfg.Scheduler.BatchSize)
	}
	if !cfg.Publish.QuotaCheck {
		t.Error("expected quota check to be enabled")
	}
	if cfg.Scheduler.ClaimTimeout != 15*time.Minute {
		t.Errorf("ClaimTimeout = %v, want fallback 15m", cfg.Scheduler.ClaimTimeout)
	}
}
