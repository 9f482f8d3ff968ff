package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoadDefaults verifies every knob has a sane default when no file or
// environment is provided.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load with defaults failed: %v", err)
	}

	if cfg.ListenAddress != ":8080" {
		t.Errorf("ListenAddress = %q, want :8080", cfg.ListenAddress)
	}
	if cfg.Mode != ModeBroadcast {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeBroadcast)
	}
	if cfg.History.Backend != HistoryBackendRedis {
		t.Errorf("History.Backend = %q, want %q", cfg.History.Backend, HistoryBackendRedis)
	}
	if cfg.History.ChannelKey != "chat_messages" {
		t.Errorf("History.ChannelKey = %q, want chat_messages", cfg.History.ChannelKey)
	}
	if cfg.History.Redis.Addr != "localhost:6379" {
		t.Errorf("History.Redis.Addr = %q, want localhost:6379", cfg.History.Redis.Addr)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Errorf("ShutdownGracePeriod = %v, want 10s", cfg.ShutdownGracePeriod)
	}
	if cfg.RateLimit.Burst <= 0 || cfg.RateLimit.RefillInterval <= 0 {
		t.Errorf("rate limit defaults not applied: %+v", cfg.RateLimit)
	}
}

// TestLoadEnvOverrides verifies RELAY_ environment variables override
// defaults, including nested keys and comma separated origins.
func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RELAY_MODE", ModeDirect)
	t.Setenv("RELAY_LISTEN_ADDRESS", ":9090")
	t.Setenv("RELAY_HISTORY_BACKEND", HistoryBackendMemory)
	t.Setenv("RELAY_HISTORY_CHANNEL_KEY", "private_messages")
	t.Setenv("RELAY_ALLOWED_ORIGINS", "http://localhost:3000, https://chat.example.com")
	t.Setenv("RELAY_SHUTDOWN_GRACE_PERIOD", "3s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Mode != ModeDirect {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeDirect)
	}
	if cfg.ListenAddress != ":9090" {
		t.Errorf("ListenAddress = %q, want :9090", cfg.ListenAddress)
	}
	if cfg.History.Backend != HistoryBackendMemory {
		t.Errorf("History.Backend = %q, want %q", cfg.History.Backend, HistoryBackendMemory)
	}
	if cfg.History.ChannelKey != "private_messages" {
		t.Errorf("History.ChannelKey = %q, want private_messages", cfg.History.ChannelKey)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://chat.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.ShutdownGracePeriod != 3*time.Second {
		t.Errorf("ShutdownGracePeriod = %v, want 3s", cfg.ShutdownGracePeriod)
	}
}

// TestLoadRejectsInvalidMode verifies unknown modes fail loudly at startup.
func TestLoadRejectsInvalidMode(t *testing.T) {
	t.Setenv("RELAY_MODE", "multicast")

	if _, err := Load(""); err == nil {
		t.Fatal("expected invalid mode to be rejected")
	}
}

// TestLoadRejectsInvalidBackend verifies unknown history backends fail loudly.
func TestLoadRejectsInvalidBackend(t *testing.T) {
	t.Setenv("RELAY_HISTORY_BACKEND", "cassandra")

	if _, err := Load(""); err == nil {
		t.Fatal("expected invalid history backend to be rejected")
	}
}

// TestLoadRejectsBadDuration verifies malformed durations surface as errors.
func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("RELAY_SHUTDOWN_GRACE_PERIOD", "soon")

	if _, err := Load(""); err == nil {
		t.Fatal("expected invalid duration to be rejected")
	}
}

// TestLoadFromFile verifies a YAML config file is honored and the environment
// still wins over the file.
func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	content := []byte(`
listen_address: ":7070"
mode: direct
history:
  backend: memory
  channel_key: file_messages
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("RELAY_MODE", ModeBroadcast)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.ListenAddress != ":7070" {
		t.Errorf("ListenAddress = %q, want :7070", cfg.ListenAddress)
	}
	if cfg.History.ChannelKey != "file_messages" {
		t.Errorf("History.ChannelKey = %q, want file_messages", cfg.History.ChannelKey)
	}
	if cfg.Mode != ModeBroadcast {
		t.Errorf("environment should override the file, Mode = %q", cfg.Mode)
	}
}

// TestLoadMissingFile verifies a nonexistent config path is an error rather
// than a silent fallback.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected missing config file to be rejected")
	}
}
