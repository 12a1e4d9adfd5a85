package config

import (
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"JWT_SECRET": "s3cret"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h ttl, got %s", cfg.TokenTTL)
	}
	if cfg.OrderStatusPolicy != PolicyPermissive {
		t.Errorf("expected permissive policy, got %s", cfg.OrderStatusPolicy)
	}
	if len(cfg.CORSAllowOrigins) != 1 || cfg.CORSAllowOrigins[0] != "*" {
		t.Errorf("unexpected origins: %v", cfg.CORSAllowOrigins)
	}
	if !strings.Contains(cfg.DatabaseURL, "dbname=webnet") {
		t.Errorf("unexpected dsn: %s", cfg.DatabaseURL)
	}
}

func TestFromEnvPrefersDatabaseURL(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"JWT_SECRET":   "x",
		"DATABASE_URL": "postgres://u:p@db:5432/shop",
		"DB_HOST":      "ignored",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://u:p@db:5432/shop" {
		t.Errorf("unexpected dsn: %s", cfg.DatabaseURL)
	}
}

func TestFromEnvErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"bad ttl":        {"JWT_SECRET": "x", "JWT_TTL_HOURS": "zero"},
		"negative ttl":   {"JWT_SECRET": "x", "JWT_TTL_HOURS": "-1"},
		"unknown policy": {"JWT_SECRET": "x", "ORDER_STATUS_POLICY": "strict"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromEnv(envMap(env)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestFromEnvDevelopmentSecretFallback(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"APP_ENV": "development", "ORDER_STATUS_POLICY": "Guarded"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret == "" {
		t.Errorf("expected a development secret")
	}
	if cfg.OrderStatusPolicy != PolicyGuarded {
		t.Errorf("expected guarded policy, got %s", cfg.OrderStatusPolicy)
	}
}
