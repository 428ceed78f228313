package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsUsable(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Intervals.LinkLayer.Duration() != 5*time.Second {
		t.Errorf("LinkLayer interval = %v, want 5s", cfg.Intervals.LinkLayer.Duration())
	}
	if cfg.Lifecycle.Remove.Duration() != 90*time.Second {
		t.Errorf("Remove threshold = %v, want 90s", cfg.Lifecycle.Remove.Duration())
	}
	if cfg.Transport.Addr == "" {
		t.Error("Transport.Addr should have a default")
	}
}

func TestApplyDefaultsFillsZeroFields(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Intervals.WiFi.Duration() != 10*time.Second {
		t.Errorf("WiFi interval = %v, want 10s", cfg.Intervals.WiFi.Duration())
	}
	if cfg.Lifecycle.Stale.Duration() != 30*time.Second {
		t.Errorf("Stale threshold = %v, want 30s", cfg.Lifecycle.Stale.Duration())
	}
}

func TestLoadFromPathPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "network-vis.yaml")
	yamlContent := "intervals:\n  wifi: 20s\n"
	if err := os.WriteFile(path, []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, gotPath, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath returned error: %v", err)
	}
	if gotPath != path {
		t.Errorf("path = %q, want %q", gotPath, path)
	}
	if cfg.Intervals.WiFi.Duration() != 20*time.Second {
		t.Errorf("WiFi interval = %v, want 20s (explicit override)", cfg.Intervals.WiFi.Duration())
	}
	if cfg.Intervals.LinkLayer.Duration() != 5*time.Second {
		t.Errorf("LinkLayer interval = %v, want default 5s", cfg.Intervals.LinkLayer.Duration())
	}
}

func TestFindConfigPathEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("intervals: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvConfigPath, path)

	if got := FindConfigPath(); got != path {
		t.Errorf("FindConfigPath() = %q, want %q", got, path)
	}
}

func TestFindConfigPathNoneFound(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	dir := t.TempDir()
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	os.Setenv("HOME", dir)

	if got := FindConfigPath(); got != "" {
		t.Errorf("FindConfigPath() = %q, want empty", got)
	}
}
