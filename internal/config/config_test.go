package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkspaceCap != defaultWorkspaceCap {
		t.Errorf("expected default workspace cap %d, got %d", defaultWorkspaceCap, cfg.WorkspaceCap)
	}
	if cfg.WarmsetSize != defaultWarmsetSize {
		t.Errorf("expected default warmset size %d, got %d", defaultWarmsetSize, cfg.WarmsetSize)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected default log format json, got %s", cfg.LogFormat)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cruxe.yaml")
	content := `
data_dir: /tmp/cruxe-data
workspace_cap: 25
warmset_size: 5
policy_mode: strict
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/cruxe-data" {
		t.Errorf("expected data_dir override, got %s", cfg.DataDir)
	}
	if cfg.WorkspaceCap != 25 {
		t.Errorf("expected workspace_cap 25, got %d", cfg.WorkspaceCap)
	}
	if cfg.PolicyMode != "strict" {
		t.Errorf("expected policy_mode strict, got %s", cfg.PolicyMode)
	}
}

func TestEnvVarsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cruxe.yaml")
	if err := os.WriteFile(path, []byte("workspace_cap: 25\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CRUXE_WORKSPACE_CAP", "40")
	t.Setenv("CRUXE_LOG_FORMAT", "text")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkspaceCap != 40 {
		t.Errorf("expected env override to win, got %d", cfg.WorkspaceCap)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected env log format text, got %s", cfg.LogFormat)
	}
}

func TestAllowedRootsSplitsOnPathListSeparator(t *testing.T) {
	t.Setenv("CRUXE_ALLOWED_ROOTS", "/home/me/src"+string(os.PathListSeparator)+"/srv/code")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.AllowedRoots) != 2 {
		t.Fatalf("expected 2 allowed roots, got %v", cfg.AllowedRoots)
	}
}
