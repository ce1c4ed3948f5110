// Package config resolves the agent's configuration as an overlay of process
// environment, a per-user config file, and built-in defaults, in that
// precedence order, and masks secret-shaped values before they reach any
// human-readable output.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ProviderConfig holds the credentials and defaults for one LLM backend.
type ProviderConfig struct {
	APIKey       string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL      string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	DefaultModel string `json:"default_model,omitempty" yaml:"default_model,omitempty"`
}

// WebSearchConfig controls the web_search tool's backend selection.
type WebSearchConfig struct {
	Backend      string `json:"backend,omitempty" yaml:"backend,omitempty"`
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`
}

// ExecConfig controls the exec tool's sandboxing and mode.
type ExecConfig struct {
	Mode         string `json:"mode,omitempty" yaml:"mode,omitempty"`
	LocalSandbox bool   `json:"local_sandbox,omitempty" yaml:"local_sandbox,omitempty"`
}

// LoggingConfig controls ambient log output.
type LoggingConfig struct {
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Config is the agent's fully resolved configuration.
type Config struct {
	Provider    string                    `json:"provider,omitempty" yaml:"provider,omitempty"`
	Providers   map[string]ProviderConfig `json:"providers,omitempty" yaml:"providers,omitempty"`
	Workspace   string                    `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	SessionDir  string                    `json:"session_dir,omitempty" yaml:"session_dir,omitempty"`
	ExplainMode bool                      `json:"explain_mode,omitempty" yaml:"explain_mode,omitempty"`
	WebSearch   WebSearchConfig           `json:"web_search,omitempty" yaml:"web_search,omitempty"`
	Exec        ExecConfig                `json:"exec,omitempty" yaml:"exec,omitempty"`
	Logging     LoggingConfig             `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// knownProviders is the curated provider id list; config.Providers may name
// others (e.g. a self-hosted OpenAI-compatible endpoint) without validation
// rejecting them.
var knownProviders = []string{"openai", "anthropic", "ollama", "azure", "openrouter", "copilot_proxy"}

// Default returns the built-in defaults layer, below the user config file
// and the environment in precedence order.
func Default() *Config {
	home, _ := os.UserHomeDir()
	sessionDir := filepath.Join(home, ".push", "sessions")
	return &Config{
		Provider:   "anthropic",
		Providers:  map[string]ProviderConfig{},
		Workspace:  ".",
		SessionDir: sessionDir,
		WebSearch: WebSearchConfig{
			Backend: "duckduckgo",
		},
		Exec: ExecConfig{
			Mode: "direct",
		},
		Logging: LoggingConfig{
			Format: "text",
		},
	}
}

// DefaultUserConfigPath returns ~/.push/config.json, the default location of
// the per-user config file absent PUSH_CONFIG_PATH.
func DefaultUserConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".push", "config.json")
}

// Load resolves the effective configuration: built-in defaults, overlaid by
// the user config file named by PUSH_CONFIG_PATH (or DefaultUserConfigPath
// if that file exists), overlaid by process environment variables. A
// missing user config file is not an error; the defaults and environment
// still apply.
func Load() (*Config, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv("PUSH_CONFIG_PATH"))
	if path == "" {
		path = DefaultUserConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		raw, err := LoadRaw(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		fileCfg, err := decodeRawConfig(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
		cfg = mergeConfigs(cfg, fileCfg)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// mergeConfigs overlays override onto base, field by field; zero-valued
// override fields leave the base value in place.
func mergeConfigs(base, override *Config) *Config {
	if override == nil {
		return base
	}
	merged := *base
	if override.Provider != "" {
		merged.Provider = override.Provider
	}
	if override.Workspace != "" {
		merged.Workspace = override.Workspace
	}
	if override.SessionDir != "" {
		merged.SessionDir = override.SessionDir
	}
	if override.ExplainMode {
		merged.ExplainMode = true
	}
	if override.WebSearch.Backend != "" {
		merged.WebSearch.Backend = override.WebSearch.Backend
	}
	if override.WebSearch.TavilyAPIKey != "" {
		merged.WebSearch.TavilyAPIKey = override.WebSearch.TavilyAPIKey
	}
	if override.Exec.Mode != "" {
		merged.Exec.Mode = override.Exec.Mode
	}
	if override.Exec.LocalSandbox {
		merged.Exec.LocalSandbox = true
	}
	if override.Logging.Format != "" {
		merged.Logging.Format = override.Logging.Format
	}
	if len(override.Providers) > 0 {
		if merged.Providers == nil {
			merged.Providers = map[string]ProviderConfig{}
		}
		for id, pc := range override.Providers {
			merged.Providers[id] = mergeProvider(merged.Providers[id], pc)
		}
	}
	return &merged
}

func mergeProvider(base, override ProviderConfig) ProviderConfig {
	merged := base
	if override.APIKey != "" {
		merged.APIKey = override.APIKey
	}
	if override.BaseURL != "" {
		merged.BaseURL = override.BaseURL
	}
	if override.DefaultModel != "" {
		merged.DefaultModel = override.DefaultModel
	}
	return merged
}

// applyEnv overlays process environment variables onto cfg in place, per
// spec.md §6's PUSH_* table: PUSH_PROVIDER, PUSH_LOCAL_SANDBOX,
// PUSH_EXPLAIN_MODE, PUSH_EXEC_MODE, PUSH_WEB_SEARCH_BACKEND,
// PUSH_TAVILY_API_KEY, PUSH_SESSION_DIR, and per-provider
// PUSH_<PROVIDER>_{URL,API_KEY,MODEL} fields.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PUSH_PROVIDER")); v != "" {
		cfg.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("PUSH_SESSION_DIR")); v != "" {
		cfg.SessionDir = v
	}
	if v, ok := os.LookupEnv("PUSH_LOCAL_SANDBOX"); ok {
		cfg.Exec.LocalSandbox = parseBoolEnv(v)
	}
	if v, ok := os.LookupEnv("PUSH_EXPLAIN_MODE"); ok {
		cfg.ExplainMode = parseBoolEnv(v)
	}
	if v := strings.TrimSpace(os.Getenv("PUSH_EXEC_MODE")); v != "" {
		cfg.Exec.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("PUSH_WEB_SEARCH_BACKEND")); v != "" {
		cfg.WebSearch.Backend = v
	}
	if v := strings.TrimSpace(os.Getenv("PUSH_TAVILY_API_KEY")); v != "" {
		cfg.WebSearch.TavilyAPIKey = v
	}

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	for _, id := range knownProviders {
		prefix := "PUSH_" + strings.ToUpper(id) + "_"
		pc := cfg.Providers[id]
		changed := false
		if v := strings.TrimSpace(os.Getenv(prefix + "URL")); v != "" {
			pc.BaseURL = v
			changed = true
		}
		if v := strings.TrimSpace(os.Getenv(prefix + "API_KEY")); v != "" {
			pc.APIKey = v
			changed = true
		}
		if v := strings.TrimSpace(os.Getenv(prefix + "MODEL")); v != "" {
			pc.DefaultModel = v
			changed = true
		}
		if changed {
			cfg.Providers[id] = pc
		}
	}
}

func parseBoolEnv(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return b
}

// secretKeyPattern matches config field keys that are treated as secrets for
// masking purposes: api keys, tokens, secrets, passwords, case-insensitive.
var secretKeyPattern = regexp.MustCompile(`(?i)key|token|secret|password`)

// MaskSecret masks a secret value as first4…last4, or all-asterisks if the
// value is 8 characters or shorter.
func MaskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + "…" + v[len(v)-4:]
}

// Redacted renders cfg as an indented JSON document with every field whose
// key matches secretKeyPattern masked, suitable for `push config show` and
// any other human-readable display.
func (c *Config) Redacted() (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("failed to unmarshal config: %w", err)
	}
	maskRecursive(generic)
	out, err := json.MarshalIndent(generic, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(out), nil
}

func maskRecursive(v any) {
	switch typed := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			val := typed[k]
			if s, ok := val.(string); ok && secretKeyPattern.MatchString(k) {
				typed[k] = MaskSecret(s)
				continue
			}
			maskRecursive(val)
		}
	case []any:
		for _, item := range typed {
			maskRecursive(item)
		}
	}
}

// Save writes cfg to path as JSON, atomically (temp file + rename) and with
// owner-only (0600) permissions, per spec.md §4.9.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp config file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to install config file %s: %w", path, err)
	}
	return nil
}

// ProviderConfigFor returns the resolved provider config for id, or the
// zero value if none is set.
func (c *Config) ProviderConfigFor(id string) ProviderConfig {
	if c.Providers == nil {
		return ProviderConfig{}
	}
	return c.Providers[id]
}
