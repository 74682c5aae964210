package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEAGUEHUB_BASE_URL", "https://hub.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Fatalf("expected dev env, got %q", cfg.AppEnv)
	}
	if cfg.ServiceName != "paddock-api" {
		t.Fatalf("unexpected service name %q", cfg.ServiceName)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr %q", cfg.HTTPAddr)
	}
	if cfg.LeagueHubTimeout != 15*time.Second {
		t.Fatalf("unexpected hub timeout %s", cfg.LeagueHubTimeout)
	}
	if !cfg.LeagueHubCircuitEnabled {
		t.Fatal("expected hub circuit breaker enabled by default")
	}
	if cfg.CacheTTL != time.Minute {
		t.Fatalf("unexpected cache TTL %s", cfg.CacheTTL)
	}
	if cfg.MarketSweepInterval != time.Minute {
		t.Fatalf("unexpected sweep interval %s", cfg.MarketSweepInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_RequiresHubBaseURL(t *testing.T) {
	t.Setenv("LEAGUEHUB_BASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without LEAGUEHUB_BASE_URL")
	}
}

func TestLoad_RejectsInvalidAppEnv(t *testing.T) {
	t.Setenv("LEAGUEHUB_BASE_URL", "https://hub.example.com")
	t.Setenv("APP_ENV", "staging-ish")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid APP_ENV")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("LEAGUEHUB_BASE_URL", "https://hub.example.com")
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", `uptrace-dsn="https://token@uptrace.dev/1"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@uptrace.dev/1" {
		t.Fatalf("unexpected uptrace DSN %q", cfg.UptraceDSN)
	}
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	t.Setenv("LEAGUEHUB_BASE_URL", "https://hub.example.com")
	t.Setenv("CACHE_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid CACHE_TTL")
	}
}
