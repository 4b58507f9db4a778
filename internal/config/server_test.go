package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Default log level mismatch: got %s, want info", cfg.LogLevel)
	}

	if len(cfg.AddonPaths) != 1 || cfg.AddonPaths[0] != "./addons" {
		t.Errorf("Default addon paths mismatch: got %v, want [./addons]", cfg.AddonPaths)
	}

	if cfg.Wasm.MemoryPages != 256 {
		t.Errorf("Default wasm memory pages mismatch: got %d, want 256", cfg.Wasm.MemoryPages)
	}

	if cfg.Wasm.MaxInstances != 100 {
		t.Errorf("Default wasm max instances mismatch: got %d, want 100", cfg.Wasm.MaxInstances)
	}
}

func TestLoadServerConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: debug
addon_paths:
  - /opt/sql-lsp/addons
wasm:
  memory_pages: 128
  debug: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Log level mismatch: got %s, want debug", cfg.LogLevel)
	}

	if len(cfg.AddonPaths) != 1 || cfg.AddonPaths[0] != "/opt/sql-lsp/addons" {
		t.Errorf("Addon paths mismatch: got %v", cfg.AddonPaths)
	}

	if cfg.Wasm.MemoryPages != 128 {
		t.Errorf("Wasm memory pages mismatch: got %d, want 128", cfg.Wasm.MemoryPages)
	}

	if !cfg.Wasm.Debug {
		t.Error("Wasm debug should be enabled")
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	_, err := LoadServerConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
