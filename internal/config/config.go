package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type IdentityBackend string

const (
	IdentityFile   IdentityBackend = "file"
	IdentityRedis  IdentityBackend = "redis"
	IdentityMemory IdentityBackend = "memory"
)

type SendMode string

const (
	SendWS     SendMode = "ws"
	SendDryRun SendMode = "dryrun"
)

type AppConfig struct {
	ServerWSURL   string
	ServerHTTPURL string

	Profile string

	IdentityBackend  IdentityBackend
	IdentityFile     string
	IdentityRedisURL string

	DatabaseURL string

	SendMode       SendMode
	ReconnectMax   int
	ReconnectDelay time.Duration
	WriteTimeout   time.Duration

	MessagesDir string
	SnapshotDir string
}

// Load reads an optional .env file and then the process environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from a lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }

	cfg := &AppConfig{
		Profile:         "default",
		IdentityBackend: IdentityFile,
		SendMode:        SendWS,
		ReconnectMax:    5,
		ReconnectDelay:  time.Second,
		WriteTimeout:    5 * time.Second,
		SnapshotDir:     "snapshots",
	}

	cfg.ServerWSURL = get("SERVER_WS_URL")
	cfg.ServerHTTPURL = strings.TrimRight(get("SERVER_HTTP_URL"), "/")
	if v := get("PROFILE"); v != "" {
		cfg.Profile = v
	}

	if v := strings.ToLower(get("IDENTITY_BACKEND")); v != "" {
		switch IdentityBackend(v) {
		case IdentityFile, IdentityRedis, IdentityMemory:
			cfg.IdentityBackend = IdentityBackend(v)
		default:
			return nil, fmt.Errorf("IDENTITY_BACKEND must be file|redis|memory, got %q", v)
		}
	}
	cfg.IdentityFile = get("IDENTITY_FILE")
	if cfg.IdentityFile == "" {
		cfg.IdentityFile = defaultIdentityFile(cfg.Profile)
	}
	cfg.IdentityRedisURL = get("IDENTITY_REDIS_URL")
	cfg.DatabaseURL = get("DATABASE_URL")

	if v := strings.ToLower(get("SEND_MODE")); v != "" {
		switch SendMode(v) {
		case SendWS, SendDryRun:
			cfg.SendMode = SendMode(v)
		default:
			return nil, fmt.Errorf("SEND_MODE must be ws|dryrun, got %q", v)
		}
	}

	if v := get("RECONNECT_MAX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ReconnectMax = n
		}
	}
	if v := get("RECONNECT_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReconnectDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := get("WRITE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WriteTimeout = time.Duration(n) * time.Millisecond
		}
	}

	cfg.MessagesDir = get("MESSAGES_DIR")
	if v := get("SNAPSHOT_DIR"); v != "" {
		cfg.SnapshotDir = v
	}

	if cfg.ServerWSURL == "" {
		return nil, errors.New("SERVER_WS_URL is required")
	}
	if cfg.IdentityBackend == IdentityRedis && cfg.IdentityRedisURL == "" {
		return nil, errors.New("IDENTITY_REDIS_URL is required when IDENTITY_BACKEND=redis")
	}

	return cfg, nil
}

func defaultIdentityFile(profile string) string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		base = "."
	}
	name := "identity.yaml"
	if profile != "" && profile != "default" {
		name = "identity." + profile + ".yaml"
	}
	return filepath.Join(base, "cheese-board", name)
}
