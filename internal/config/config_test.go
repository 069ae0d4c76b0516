package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/croco")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CLAIM_CYCLE_HOURS", "")
	t.Setenv("STALE_INCUBATION_HOURS", "")
	t.Setenv("BASE_REWARD", "")

	cfg := Load()
	if cfg.AppPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.AppPort)
	}
	if cfg.ClaimCycle != 4*time.Hour {
		t.Fatalf("expected 4h cycle, got %s", cfg.ClaimCycle)
	}
	if cfg.StaleIncubation != 4*time.Hour {
		t.Fatalf("expected stale cutoff of one cycle, got %s", cfg.StaleIncubation)
	}
	if cfg.BaseReward.String() != "144" {
		t.Fatalf("expected base reward 144, got %s", cfg.BaseReward)
	}
	if cfg.AutoHatchingPrice.String() != "500" {
		t.Fatalf("expected auto hatching price 500, got %s", cfg.AutoHatchingPrice)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/croco")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CLAIM_CYCLE_HOURS", "2")
	t.Setenv("STALE_INCUBATION_HOURS", "10")
	t.Setenv("BASE_REWARD", "100.5")
	t.Setenv("SWEEP_INTERVAL_SECONDS", "oops")

	cfg := Load()
	if cfg.ClaimCycle != 2*time.Hour {
		t.Fatalf("expected 2h cycle, got %s", cfg.ClaimCycle)
	}
	if cfg.StaleIncubation != 10*time.Hour {
		t.Fatalf("expected 10h stale cutoff, got %s", cfg.StaleIncubation)
	}
	if cfg.BaseReward.String() != "100.5" {
		t.Fatalf("expected base reward 100.5, got %s", cfg.BaseReward)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("invalid value must fall back to default, got %s", cfg.SweepInterval)
	}
}

func TestLoadDevModeRelaxesSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/croco")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BOT_TOKEN", "")

	cfg := Load()
	if cfg.JWTSecret == "" {
		t.Fatalf("dev mode must provide a jwt secret")
	}
	if cfg.ProfilePhotos {
		t.Fatalf("profile photos need a bot token")
	}
}

func TestLoadRejectsZeroDurations(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/croco")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CLAIM_CYCLE_HOURS", "0")
	t.Setenv("SWEEP_INTERVAL_SECONDS", "0")
	t.Setenv("STALE_INCUBATION_HOURS", "")
	t.Setenv("REDIS_DB", "0")

	cfg := Load()
	if cfg.ClaimCycle != 4*time.Hour {
		t.Fatalf("zero cycle must fall back to 4h, got %s", cfg.ClaimCycle)
	}
	if cfg.SweepInterval != time.Minute {
		t.Fatalf("zero sweep interval must fall back to 1m, got %s", cfg.SweepInterval)
	}
	if cfg.StaleIncubation != cfg.ClaimCycle {
		t.Fatalf("stale cutoff must follow the cycle, got %s", cfg.StaleIncubation)
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("redis db 0 is valid, got %d", cfg.RedisDB)
	}
}
