package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env               string
	Port              string
	DatabaseURL       string
	JWTSecret         string
	TokenTTL          time.Duration
	OrderStatusPolicy string
	CORSAllowOrigins  []string
	LogLevel          string
	Seed              bool
}

const (
	PolicyPermissive = "permissive"
	PolicyGuarded    = "guarded"
)

const devJWTSecret = "dev-secret-please-change"

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can feed their own values.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Env:               get("APP_ENV", "production"),
		Port:              get("PORT", "8080"),
		JWTSecret:         getenv("JWT_SECRET"),
		OrderStatusPolicy: strings.ToLower(get("ORDER_STATUS_POLICY", PolicyPermissive)),
		LogLevel:          strings.ToLower(get("LOG_LEVEL", "info")),
	}

	if cfg.JWTSecret == "" {
		if cfg.Env != "development" {
			return nil, errors.New("JWT_SECRET must be set")
		}
		cfg.JWTSecret = devJWTSecret
	}

	hours, err := strconv.Atoi(get("JWT_TTL_HOURS", "24"))
	if err != nil || hours <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL_HOURS %q", getenv("JWT_TTL_HOURS"))
	}
	cfg.TokenTTL = time.Duration(hours) * time.Hour

	switch cfg.OrderStatusPolicy {
	case PolicyPermissive, PolicyGuarded:
	default:
		return nil, fmt.Errorf("invalid ORDER_STATUS_POLICY %q", cfg.OrderStatusPolicy)
	}

	for _, origin := range strings.Split(get("CORS_ALLOW_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, origin)
		}
	}

	cfg.Seed, _ = strconv.ParseBool(get("SEED", "false"))

	if databaseURL := getenv("DATABASE_URL"); databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	} else {
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			get("DB_HOST", "localhost"),
			get("DB_USER", "postgres"),
			getenv("DB_PASSWORD"),
			get("DB_NAME", "webnet"),
			get("DB_PORT", "5432"),
			get("DB_SSLMODE", "disable"),
		)
	}

	return cfg, nil
}
