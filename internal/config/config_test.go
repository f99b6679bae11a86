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
	cfg, err := FromEnv(envMap(map[string]string{"SERVER_WS_URL": "ws://localhost:5000/ws"}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.IdentityBackend != IdentityFile || cfg.SendMode != SendWS {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ReconnectMax != 5 || cfg.ReconnectDelay != time.Second || cfg.WriteTimeout != 5*time.Second {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
	if !strings.HasSuffix(cfg.IdentityFile, "identity.yaml") {
		t.Fatalf("unexpected identity file: %s", cfg.IdentityFile)
	}
}

func TestFromEnvRequiresWSURL(t *testing.T) {
	if _, err := FromEnv(envMap(nil)); err == nil {
		t.Fatalf("expected error without SERVER_WS_URL")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"SERVER_WS_URL":      "ws://h/ws",
		"SERVER_HTTP_URL":    "http://h/",
		"PROFILE":            "alt",
		"IDENTITY_BACKEND":   "REDIS",
		"IDENTITY_REDIS_URL": "redis://localhost:6379/1",
		"SEND_MODE":          "dryrun",
		"RECONNECT_MAX":      "0",
		"RECONNECT_DELAY_MS": "250",
		"WRITE_TIMEOUT_MS":   "nope",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ServerHTTPURL != "http://h" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.ServerHTTPURL)
	}
	if cfg.IdentityBackend != IdentityRedis || cfg.SendMode != SendDryRun {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ReconnectMax != 0 || cfg.ReconnectDelay != 250*time.Millisecond {
		t.Fatalf("reconnect overrides not applied: %+v", cfg)
	}
	if cfg.WriteTimeout != 5*time.Second {
		t.Fatalf("invalid number should keep default, got %v", cfg.WriteTimeout)
	}
	if !strings.HasSuffix(cfg.IdentityFile, "identity.alt.yaml") {
		t.Fatalf("profile not reflected in identity file: %s", cfg.IdentityFile)
	}
}

func TestFromEnvRejectsBadEnums(t *testing.T) {
	if _, err := FromEnv(envMap(map[string]string{"SERVER_WS_URL": "ws://h", "IDENTITY_BACKEND": "s3"})); err == nil {
		t.Fatalf("expected identity backend error")
	}
	if _, err := FromEnv(envMap(map[string]string{"SERVER_WS_URL": "ws://h", "SEND_MODE": "carrier-pigeon"})); err == nil {
		t.Fatalf("expected send mode error")
	}
	if _, err := FromEnv(envMap(map[string]string{"SERVER_WS_URL": "ws://h", "IDENTITY_BACKEND": "redis"})); err == nil {
		t.Fatalf("expected missing redis url error")
	}
}
