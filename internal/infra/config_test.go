package infra

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/tourgen_test")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PRODUCER_TOKEN", "producer-token")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.AppEnv != "development" {
		t.Errorf("AppEnv = %q", cfg.AppEnv)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.JobTimeout != 20*time.Minute {
		t.Errorf("JobTimeout = %s, want 20m", cfg.JobTimeout)
	}
	if cfg.ReaperSchedule != "@every 2m" {
		t.Errorf("ReaperSchedule = %q", cfg.ReaperSchedule)
	}
	if cfg.CreditsPerSecond != 1 {
		t.Errorf("CreditsPerSecond = %d", cfg.CreditsPerSecond)
	}
	if cfg.DispatchQueue != "tour_jobs_queue" {
		t.Errorf("DispatchQueue = %q", cfg.DispatchQueue)
	}
	if cfg.RateLimitPerMin != 30 {
		t.Errorf("RateLimitPerMin = %d", cfg.RateLimitPerMin)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JOB_TIMEOUT_MINUTES", "45")
	t.Setenv("CREDITS_PER_TOUR_SECOND", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.AppEnv != "production" {
		t.Errorf("AppEnv = %q", cfg.AppEnv)
	}
	if cfg.JobTimeout != 45*time.Minute {
		t.Errorf("JobTimeout = %s, want 45m", cfg.JobTimeout)
	}
	if cfg.CreditsPerSecond != 3 {
		t.Errorf("CreditsPerSecond = %d", cfg.CreditsPerSecond)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigRequiredVars(t *testing.T) {
	cases := []struct {
		name  string
		unset string
	}{
		{"missing database url", "DATABASE_URL"},
		{"missing jwt secret", "JWT_SECRET"},
		{"missing producer token", "PRODUCER_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.unset, "")

			if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), tc.unset) {
				t.Errorf("expected error naming %s, got %v", tc.unset, err)
			}
		})
	}
}

func TestLoadConfigRejectsNonPositiveTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JOB_TIMEOUT_MINUTES", "-5")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for non-positive timeout")
	}
}
