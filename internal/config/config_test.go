package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "REDIS_URL", "DATABASE_URL", "BROWSER_MODE", "TARGET_URL",
		"SETTLE_OPEN_MS", "SETTLE_RELOAD_MS", "SSH_ALLOWED_FINGERPRINTS", "MCP_TRANSPORT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.RedisURL != "localhost:6379" {
		t.Fatalf("expected default redis url, got %s", cfg.RedisURL)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default http addr, got %s", cfg.HTTPAddr)
	}
	if cfg.BrowserMode != "http" {
		t.Fatalf("expected http browser mode, got %s", cfg.BrowserMode)
	}
	if cfg.TargetURL != "https://dexscreener.com/" {
		t.Fatalf("unexpected target url %s", cfg.TargetURL)
	}
	if cfg.SettleAfterOpen != 10*time.Second || cfg.SettleAfterReload != 5*time.Second {
		t.Fatalf("unexpected settle delays: %s %s", cfg.SettleAfterOpen, cfg.SettleAfterReload)
	}
	if len(cfg.SSHAllowedFingerprints) != 0 {
		t.Fatalf("expected no fingerprints, got %v", cfg.SSHAllowedFingerprints)
	}
	if cfg.MCPTransport != "stdio" {
		t.Fatalf("expected stdio transport, got %s", cfg.MCPTransport)
	}
}

func TestLoadWithEnv(t *testing.T) {
	t.Setenv("REDIS_URL", "redis:6379")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("BROWSER_MODE", "ROD")
	t.Setenv("SETTLE_RELOAD_MS", "250")
	t.Setenv("SSH_ALLOWED_FINGERPRINTS", "SHA256:a, SHA256:b ,")
	t.Setenv("CONTROL_API_URL", "http://daemon:8080/")

	cfg := Load()
	if cfg.RedisURL != "redis:6379" || cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.BrowserMode != "rod" {
		t.Fatalf("expected rod mode, got %s", cfg.BrowserMode)
	}
	if cfg.SettleAfterReload != 250*time.Millisecond {
		t.Fatalf("expected 250ms reload settle, got %s", cfg.SettleAfterReload)
	}
	if len(cfg.SSHAllowedFingerprints) != 2 || cfg.SSHAllowedFingerprints[1] != "SHA256:b" {
		t.Fatalf("unexpected fingerprints %v", cfg.SSHAllowedFingerprints)
	}
	if cfg.ControlAPIURL != "http://daemon:8080" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.ControlAPIURL)
	}

	t.Setenv("SETTLE_RELOAD_MS", "bad")
	t.Setenv("BROWSER_MODE", "firefox")
	cfg = Load()
	if cfg.SettleAfterReload != 5*time.Second {
		t.Fatalf("invalid settle should fall back to default, got %s", cfg.SettleAfterReload)
	}
	if cfg.BrowserMode != "http" {
		t.Fatalf("unsupported mode should fall back to http, got %s", cfg.BrowserMode)
	}
}
