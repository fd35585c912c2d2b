package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("expected default driver sqlite, got %s", cfg.DBDriver)
	}
	if cfg.CacheSize != 1000 {
		t.Errorf("expected default cache size 1000, got %d", cfg.CacheSize)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("expected default cache TTL 10m, got %s", cfg.CacheTTL)
	}
	if cfg.TokenTTL != time.Hour {
		t.Errorf("expected default token TTL 1h, got %s", cfg.TokenTTL)
	}
	if cfg.DevTokenIssuer {
		t.Errorf("expected dev token issuer disabled by default")
	}
	if cfg.AMQPExchange != "nopolin.events" {
		t.Errorf("expected default exchange nopolin.events, got %s", cfg.AMQPExchange)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CACHE_TTL", "30")
	t.Setenv("DEV_TOKEN_ISSUER", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.LogLevel)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("expected cache TTL 30m, got %s", cfg.CacheTTL)
	}
	if !cfg.DevTokenIssuer {
		t.Errorf("expected dev token issuer enabled")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"bad driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "oracle"}},
		{"postgres without dsn", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "postgres"}},
		{"bad cache size", map[string]string{"JWT_SECRET": "s", "CACHE_SIZE": "lots"}},
		{"bad token ttl", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected load to fail")
			}
		})
	}
}
