package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("MaxBodyBytes = %d, want %d", cfg.MaxBodyBytes, DefaultMaxBodyBytes)
	}
	if cfg.ListenAddr() != "0.0.0.0:5151" {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
	if cfg.Token != "" {
		t.Errorf("Token = %q, want empty", cfg.Token)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "printshare.yaml")
	content := []byte("port: 6000\nlog_level: debug\nhost_identity: from-file\nrequest_timeout: 15s\ntoken: file-token\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(EnvConfigFile, path)
	t.Setenv("PRINT_SERVER_PORT", "7000")
	t.Setenv("PRINT_SERVER_HOST_IDENTITY", "from-env")
	t.Setenv(EnvToken, " env-token ")

	cfg, err := Load([]string{"-host-identity", "from-flag"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want file value", cfg.LogLevel)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("RequestTimeout = %v, want file value", cfg.RequestTimeout)
	}
	if cfg.Port != 7000 {
		t.Errorf("Port = %d, env should override file", cfg.Port)
	}
	if cfg.HostIdentity != "from-flag" {
		t.Errorf("HostIdentity = %q, flag should override env", cfg.HostIdentity)
	}
	if cfg.Token != "file-token" {
		t.Errorf("Token = %q, want explicit file token", cfg.Token)
	}
	if cfg.EnvToken != "env-token" {
		t.Errorf("EnvToken = %q, want trimmed env token", cfg.EnvToken)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "port out of range", args: []string{"-port", "70000"}},
		{name: "negative body", args: []string{"-max-body", "-1"}},
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "missing config file", args: []string{"-config", "/does/not/exist.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.args); err == nil {
				t.Errorf("Load(%v) error = nil, want error", tt.args)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.Token = "secret"
	cfg.EnvToken = "other"

	r := cfg.Redacted()
	if r.Token == "secret" || r.EnvToken == "other" {
		t.Errorf("Redacted() leaked tokens: %+v", r)
	}
	if cfg.Token != "secret" {
		t.Error("Redacted() must not modify the receiver")
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` print.lan , "other.lan",, 'x' `)
	want := []string{"print.lan", "other.lan", "x"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSyncInterval(t *testing.T) {
	t.Setenv("PRINT_SERVER_SYNC_INTERVAL", "2m")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SyncInterval != 2*time.Minute {
		t.Errorf("SyncInterval = %v, want 2m", cfg.SyncInterval)
	}

	t.Setenv("PRINT_SERVER_SYNC_INTERVAL", "-1s")
	if _, err := Load(nil); err == nil {
		t.Error("Load() accepted a negative sync interval")
	}
}
