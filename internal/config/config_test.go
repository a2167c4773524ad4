package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	return fs
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("NODE_ENV", "")

	cfg, err := Load(newFlags(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Expected port %s, got %s", DefaultPort, cfg.Port)
	}
	if cfg.SettleDelay != DefaultSettleDelay {
		t.Errorf("Expected settle delay %s, got %s", DefaultSettleDelay, cfg.SettleDelay)
	}
	if cfg.EnableUpload || cfg.ReleaseOnBack {
		t.Error("Expected optional behaviours off by default")
	}
	if cfg.Addr() != ":3000" {
		t.Errorf("Expected :3000, got %s", cfg.Addr())
	}
}

func TestLoadPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		args     []string
		wantPort string
		wantEnv  string
	}{
		{
			name:     "PORT from environment",
			env:      map[string]string{"PORT": "8080"},
			wantPort: "8080",
		},
		{
			name:     "flag wins over environment",
			env:      map[string]string{"PORT": "8080"},
			args:     []string{"--port", "9090"},
			wantPort: "9090",
		},
		{
			name:     "NODE_ENV is carried",
			env:      map[string]string{"NODE_ENV": "production"},
			wantPort: DefaultPort,
			wantEnv:  "production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PORT", "")
			t.Setenv("NODE_ENV", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(newFlags(t, tt.args...))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cfg.Port != tt.wantPort {
				t.Errorf("Expected port %s, got %s", tt.wantPort, cfg.Port)
			}
			if tt.wantEnv != "" && cfg.Env != tt.wantEnv {
				t.Errorf("Expected env %s, got %s", tt.wantEnv, cfg.Env)
			}
		})
	}
}

func TestLoadPrefixedEnv(t *testing.T) {
	t.Setenv("ARVIEWER_SETTLE_DELAY", "250ms")
	t.Setenv("ARVIEWER_RELEASE_ON_BACK", "true")

	cfg, err := Load(newFlags(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.SettleDelay != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %s", cfg.SettleDelay)
	}
	if !cfg.ReleaseOnBack {
		t.Error("Expected release-on-back from environment")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arviewer.yaml")
	content := "enable-upload: true\nhints: /tmp/hints.yaml\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(newFlags(t, "--config", path))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cfg.EnableUpload {
		t.Error("Expected enable-upload from config file")
	}
	if cfg.HintsPath != "/tmp/hints.yaml" {
		t.Errorf("Expected hints path from config file, got %q", cfg.HintsPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "settle delay too short", args: []string{"--settle-delay", "50ms"}, wantErr: "settle-delay"},
		{name: "settle delay too long", args: []string{"--settle-delay", "2s"}, wantErr: "settle-delay"},
		{name: "quality out of range", args: []string{"--quality", "1.5"}, wantErr: "quality"},
		{name: "zero width", args: []string{"--max-width", "0"}, wantErr: "max-width"},
		{name: "zero threshold", args: []string{"--threshold", "0"}, wantErr: "threshold"},
		{name: "negative threshold", args: []string{"--threshold", "-5"}, wantErr: "threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newFlags(t, tt.args...))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
