package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentvault/agentvault/internal/vault"
)

const (
	defaultAppName        = "AgentVault"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultFeeBps         = 200
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
)

// Config captures the vault service's runtime configuration. Values come
// from an optional YAML file (CONFIG_PATH) overridden by environment
// variables.
type Config struct {
	AppName  string
	AppEnv   string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	AdminKeyHash string
	Admin        vault.Address
	Custody      vault.Address
	Treasury     vault.Address
	FeeBps       uint64

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	ReconcileCron string
	ReconcileDB   string
}

// fileConfig is the YAML shape of the optional config file.
type fileConfig struct {
	AppName  string `yaml:"app_name"`
	AppEnv   string `yaml:"app_env"`
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	AdminKeyHash string `yaml:"admin_key_hash"`
	AdminAddress string `yaml:"admin_address"`
	Custody      string `yaml:"custody_address"`
	Treasury     string `yaml:"treasury_address"`
	FeeBps       uint64 `yaml:"platform_fee_bps"`

	ShutdownTimeout string `yaml:"shutdown_timeout"`
	IdempotencyTTL  string `yaml:"idempotency_ttl"`

	ReconcileCron string `yaml:"reconcile_cron"`
	ReconcileDB   string `yaml:"reconcile_db"`
}

// Load builds the configuration from CONFIG_PATH (if set and readable) and
// the environment, then validates it.
func Load() (Config, error) {
	cfg := Config{
		AppName:        defaultAppName,
		AppEnv:         defaultAppEnv,
		Port:           defaultPort,
		LogLevel:       defaultLogLevel,
		FeeBps:         defaultFeeBps,
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
	}

	var file fileConfig
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &file); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		}
	}
	applyFile(&cfg, file)

	adminAddr, custodyAddr, treasuryAddr := file.AdminAddress, file.Custody, file.Treasury

	// Environment overrides.
	setString(&cfg.AppName, "APP_NAME")
	setString(&cfg.AppEnv, "APP_ENV")
	setString(&cfg.Port, "PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.RedisURL, "REDIS_URL")
	setString(&cfg.AdminKeyHash, "ADMIN_KEY_HASH")
	setString(&adminAddr, "ADMIN_ADDRESS")
	setString(&custodyAddr, "CUSTODY_ADDRESS")
	setString(&treasuryAddr, "TREASURY_ADDRESS")
	setString(&cfg.ReconcileCron, "RECONCILE_CRON")
	setString(&cfg.ReconcileDB, "RECONCILE_DB")
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if v := os.Getenv("PLATFORM_FEE_BPS"); v != "" {
		bps, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PLATFORM_FEE_BPS: %w", err)
		}
		cfg.FeeBps = bps
	}
	if err := overrideDuration(&cfg.ShutdownPeriod, "SHUTDOWN_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if err := overrideDuration(&cfg.IdempotencyTTL, "IDEMPOTENCY_TTL"); err != nil {
		return Config{}, err
	}

	if cfg.FeeBps > vault.MaxFeeBps {
		return Config{}, fmt.Errorf("PLATFORM_FEE_BPS %d exceeds maximum %d", cfg.FeeBps, vault.MaxFeeBps)
	}

	var err error
	if cfg.Admin, err = vault.ParseAddress(adminAddr); err != nil {
		return Config{}, fmt.Errorf("ADMIN_ADDRESS: %w", err)
	}
	if cfg.Custody, err = vault.ParseAddress(custodyAddr); err != nil {
		return Config{}, fmt.Errorf("CUSTODY_ADDRESS: %w", err)
	}
	if cfg.Treasury, err = vault.ParseAddress(treasuryAddr); err != nil {
		return Config{}, fmt.Errorf("TREASURY_ADDRESS: %w", err)
	}
	if cfg.Treasury.IsZero() {
		return Config{}, fmt.Errorf("TREASURY_ADDRESS must not be the zero address")
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the service runs on in-memory backends.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func applyFile(cfg *Config, file fileConfig) {
	if file.AppName != "" {
		cfg.AppName = file.AppName
	}
	if file.AppEnv != "" {
		cfg.AppEnv = file.AppEnv
	}
	if file.Port != "" {
		cfg.Port = file.Port
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.DatabaseURL != "" {
		cfg.DatabaseURL = file.DatabaseURL
	}
	if file.RedisURL != "" {
		cfg.RedisURL = file.RedisURL
	}
	if file.AdminKeyHash != "" {
		cfg.AdminKeyHash = file.AdminKeyHash
	}
	if file.FeeBps != 0 {
		cfg.FeeBps = file.FeeBps
	}
	if file.ShutdownTimeout != "" {
		if d, err := time.ParseDuration(file.ShutdownTimeout); err == nil {
			cfg.ShutdownPeriod = d
		}
	}
	if file.IdempotencyTTL != "" {
		if d, err := time.ParseDuration(file.IdempotencyTTL); err == nil {
			cfg.IdempotencyTTL = d
		}
	}
	if file.ReconcileCron != "" {
		cfg.ReconcileCron = file.ReconcileCron
	}
	if file.ReconcileDB != "" {
		cfg.ReconcileDB = file.ReconcileDB
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(seconds) * time.Second
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
