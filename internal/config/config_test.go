package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	testAdmin    = "0xadadadadadadadadadadadadadadadadadadadad"
	testCustody  = "0xcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd"
	testTreasury = "0x1212121212121212121212121212121212121212"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ADMIN_ADDRESS", testAdmin)
	t.Setenv("CUSTODY_ADDRESS", testCustody)
	t.Setenv("TREASURY_ADDRESS", testTreasury)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("PLATFORM_FEE_BPS", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")
	t.Setenv("IDEMPOTENCY_TTL", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != defaultAppName {
		t.Fatalf("expected default app name, got %q", cfg.AppName)
	}
	if cfg.FeeBps != defaultFeeBps {
		t.Fatalf("expected default fee bps, got %d", cfg.FeeBps)
	}
	if !cfg.IsDev() {
		t.Fatal("development env should report IsDev")
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected listen address %q", cfg.Address())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PLATFORM_FEE_BPS", "500")
	t.Setenv("SHUTDOWN_TIMEOUT", "5")
	t.Setenv("IDEMPOTENCY_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FeeBps != 500 {
		t.Fatalf("expected fee 500, got %d", cfg.FeeBps)
	}
	if cfg.ShutdownPeriod != 5*time.Second {
		t.Fatalf("expected 5s shutdown, got %s", cfg.ShutdownPeriod)
	}
	if cfg.IdempotencyTTL != time.Hour {
		t.Fatalf("expected 1h ttl, got %s", cfg.IdempotencyTTL)
	}
}

func TestLoadRejections(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("PLATFORM_FEE_BPS", "1001")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for fee above maximum")
	}
	t.Setenv("PLATFORM_FEE_BPS", "")

	t.Setenv("TREASURY_ADDRESS", "0x0000000000000000000000000000000000000000")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero treasury")
	}
	t.Setenv("TREASURY_ADDRESS", testTreasury)

	t.Setenv("APP_ENV", "production")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL in production")
	}
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "app_name: FileVault\nport: \"9090\"\nplatform_fee_bps: 300\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "FileVault" {
		t.Fatalf("expected file app name, got %q", cfg.AppName)
	}
	if cfg.FeeBps != 300 {
		t.Fatalf("expected file fee 300, got %d", cfg.FeeBps)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env should override file port, got %q", cfg.Port)
	}
}
