package goSession

import (
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := DefaultConfig()
	cfg.Credential.Secret = "unit-test-secret"
	return cfg
}

func TestDefaultConfigPresetValidates(t *testing.T) {
	cfg := validTestConfig()

	if cfg.Session.RefreshThreshold <= 0 {
		t.Fatal("expected positive refresh threshold")
	}
	if cfg.Session.StorageKey == cfg.RateLimit.StorageKey {
		t.Fatal("expected distinct storage keys")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected preset to validate, got %v", err)
	}
}

func TestHighSecurityConfigPresetValidates(t *testing.T) {
	cfg := HighSecurityConfig()
	cfg.Credential.Secret = "unit-test-secret"

	if cfg.RateLimit.MaxAttempts >= DefaultConfig().RateLimit.MaxAttempts {
		t.Fatal("expected fewer attempts than the default preset")
	}
	if !cfg.Audit.Enabled {
		t.Fatal("expected audit trail enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected high security preset to validate, got %v", err)
	}
}

func TestLowFrictionConfigPresetValidates(t *testing.T) {
	cfg := LowFrictionConfig()
	cfg.Credential.Secret = "unit-test-secret"

	if cfg.RateLimit.InitialDelay != 0 {
		t.Fatal("expected no per-attempt delay")
	}
	if cfg.RateLimit.MaxAttempts <= DefaultConfig().RateLimit.MaxAttempts {
		t.Fatal("expected more attempts than the default preset")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected low friction preset to validate, got %v", err)
	}
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing credential secret")
	}
}

func TestValidateRejectsTTLBelowThreshold(t *testing.T) {
	cfg := validTestConfig()
	cfg.Session.DefaultAccessTTL = 30 * time.Second
	cfg.Session.RefreshThreshold = time.Minute
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when access TTL does not exceed refresh threshold")
	}
}

func TestValidateRejectsSharedStorageKey(t *testing.T) {
	cfg := validTestConfig()
	cfg.RateLimit.StorageKey = cfg.Session.StorageKey
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for shared storage key")
	}
}

func TestValidateRejectsLockoutCeilingBelowBase(t *testing.T) {
	cfg := validTestConfig()
	cfg.RateLimit.MaxLockout = cfg.RateLimit.BaseLockout - time.Minute
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for lockout ceiling below base")
	}
}
