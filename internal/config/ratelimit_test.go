package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	cfg := LoadRateLimitConfig()
	if !cfg.Enabled {
		t.Fatal("rate limiting must default to enabled")
	}
	if cfg.Capacity != 60 || cfg.RefillTokens != 1 {
		t.Fatal("default bucket sizing wrong:", cfg.Capacity, cfg.RefillTokens)
	}
	if cfg.RefillInterval != time.Second {
		t.Fatal("default refill interval wrong:", cfg.RefillInterval)
	}
	if cfg.KeyStrategy != "ip_launch" || cfg.Prefix != "rl" {
		t.Fatal("default key settings wrong:", cfg.KeyStrategy, cfg.Prefix)
	}
}

func TestLoadRateLimitConfigFloors(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 || cfg.RefillTokens != 1 {
		t.Fatal("zero or negative sizing must be floored to 1:", cfg.Capacity, cfg.RefillTokens)
	}
	if cfg.TTL < 5*cfg.RefillInterval {
		t.Fatal("ttl must cover several refill intervals:", cfg.TTL)
	}
}

func TestLoadRateLimitConfigParsing(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "off")
	t.Setenv("RATE_LIMIT_KEY_STRATEGY", "launch_route")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "not-a-duration")

	cfg := LoadRateLimitConfig()
	if cfg.Enabled {
		t.Fatal("RATE_LIMIT_ENABLED=off must disable the bucket")
	}
	if cfg.KeyStrategy != "launch_route" {
		t.Fatal("key strategy not taken from the environment:", cfg.KeyStrategy)
	}
	if cfg.RefillInterval != time.Second {
		t.Fatal("unparseable interval must fall back to the default:", cfg.RefillInterval)
	}
}
