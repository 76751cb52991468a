// Package config loads Cruxe's process-wide settings from CRUXE_*
// environment variables and an optional YAML file, the way the base
// module's httplink package loads its own .cgrconfig.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the lifecycle router, query pipeline and
// MCP transport need at startup. Zero value is not usable directly;
// call Load to get one with defaults applied.
type Config struct {
	// DataDir is the root directory holding registry.db and every
	// project's own <project_id>/ subdirectory.
	DataDir string `yaml:"data_dir"`

	// AllowedRoots gates auto-discovery: a workspace path must fall
	// under one of these prefixes to be auto-registered.
	AllowedRoots []string `yaml:"allowed_roots"`

	// AutoDiscover enables registering unknown workspace paths on
	// first resolve instead of rejecting them.
	AutoDiscover bool `yaml:"auto_discover"`

	// WorkspaceCap bounds how many project stores the lifecycle router
	// keeps open at once; over the cap it closes the least-recently-used
	// handle in memory only. Registered workspaces are not evicted by
	// count, and their on-disk data is kept.
	WorkspaceCap int `yaml:"workspace_cap"`

	// WarmsetSize and NoPrewarm are loaded but nothing reads them;
	// cmd/cruxe does not prewarm any workspace at startup.
	WarmsetSize int  `yaml:"warmset_size"`
	NoPrewarm   bool `yaml:"-"`

	// SafetyLimitBytes is loaded but the query pipeline does not read
	// it; the pipeline truncates serialized results at its own fixed
	// cap (defaultSafetyLimitBytes in internal/query/pack.go).
	SafetyLimitBytes int `yaml:"safety_limit_bytes"`

	// LogFormat is "json" (default) or "text".
	LogFormat string `yaml:"log_format"`

	// PolicyMode is the default redaction/filtering mode applied to
	// query results absent a per-request override.
	PolicyMode string `yaml:"policy_mode"`
}

const (
	defaultWorkspaceCap     = 10
	defaultWarmsetSize      = 3
	defaultSafetyLimitBytes = 256 * 1024
	defaultLogFormat        = "json"
	defaultPolicyMode       = "balanced"
)

// Default returns a Config with every field at its documented default.
func Default() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".cruxe")
	if home == "" {
		dataDir = ".cruxe"
	}
	return &Config{
		DataDir:          dataDir,
		AutoDiscover:     true,
		WorkspaceCap:     defaultWorkspaceCap,
		WarmsetSize:      defaultWarmsetSize,
		SafetyLimitBytes: defaultSafetyLimitBytes,
		LogFormat:        defaultLogFormat,
		PolicyMode:       defaultPolicyMode,
	}
}

// Load builds a Config from defaults, an optional YAML file at
// configPath (skipped silently if it doesn't exist, matching the base
// module's LoadConfig), and finally CRUXE_* environment variables,
// which take precedence over the file.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("CRUXE_DATA_DIR"); ok && v != "" {
		cfg.DataDir = v
	}
	if v, ok := os.LookupEnv("CRUXE_ALLOWED_ROOTS"); ok {
		cfg.AllowedRoots = splitNonEmpty(v, string(os.PathListSeparator))
	}
	if v, ok := os.LookupEnv("CRUXE_AUTO_DISCOVER"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AutoDiscover = b
		}
	}
	if v, ok := os.LookupEnv("CRUXE_WORKSPACE_CAP"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WorkspaceCap = n
		}
	}
	if v, ok := os.LookupEnv("CRUXE_WARMSET_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.WarmsetSize = n
		}
	}
	if v, ok := os.LookupEnv("CRUXE_SAFETY_LIMIT_BYTES"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SafetyLimitBytes = n
		}
	}
	if v, ok := os.LookupEnv("CRUXE_LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = v
	}
	if v, ok := os.LookupEnv("CRUXE_POLICY_MODE"); ok && v != "" {
		cfg.PolicyMode = v
	}
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
