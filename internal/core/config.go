// Package core contains the decision logic of docup: capability selection,
// prompt assembly, request orchestration, and configuration loading.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/docup/pkg/models"
)

const (
	// ConfigFileName is the base name of the YAML config file, without extension.
	ConfigFileName = ".docup"
	// DataDirName holds the page registry and event log under the base path.
	DataDirName = ".docup"

	DefaultModel     = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens = 8000
	DefaultBaseURL   = "https://api.anthropic.com"
)

// ConfigurationManager loads and validates docup configuration.
type ConfigurationManager interface {
	LoadConfig() (*models.Config, error)
	ValidateConfig(cfg *models.Config) error
}

// viperConfigManager implements ConfigurationManager using Viper for reading
// .docup.yaml and the environment.
type viperConfigManager struct {
	basePath string
	getenv   func(string) string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .docup.yaml from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath, getenv: os.Getenv}
}

// DefaultConfig returns a Config populated with the built-in providers and
// model settings.
func DefaultConfig(basePath string) *models.Config {
	return &models.Config{
		Model:         DefaultModel,
		MaxTokens:     DefaultMaxTokens,
		Backend:       models.BackendAPI,
		ClaudeCommand: "claude",
		DiscoverTools: true,
		CodebasePath:  basePath,
		API: models.APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 10 * time.Minute,
		},
		KnowledgeBase: models.ProviderDescriptor{
			Name:    "notion",
			Label:   "Notion",
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-notion"},
			Env:     map[string]string{"NOTION_API_KEY": "${NOTION_API_KEY}"},
		},
		BrowserAutomation: models.ProviderDescriptor{
			Name:    "playwright",
			Label:   "Playwright",
			Command: "npx",
			Args:    []string{"-y", "@executeautomation/playwright-mcp-server"},
			Env:     map[string]string{},
		},
		Pages: map[string]string{},
		Log: models.LogConfig{
			Level: "info",
		},
		EventsPath: filepath.Join(basePath, DataDirName, "events.jsonl"),
	}
}

// LoadConfig reads .docup.yaml from the base path. A missing file yields the
// defaults. Provider env values are expanded against the process
// environment.
func (cm *viperConfigManager) LoadConfig() (*models.Config, error) {
	cfg := DefaultConfig(cm.basePath)

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("model", cfg.Model)
	v.SetDefault("max_tokens", cfg.MaxTokens)
	v.SetDefault("backend", string(cfg.Backend))
	v.SetDefault("claude_command", cfg.ClaudeCommand)
	v.SetDefault("discover_tools", cfg.DiscoverTools)
	v.SetDefault("codebase_path", cfg.CodebasePath)
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", "")
	v.SetDefault("events_path", cfg.EventsPath)

	v.SetEnvPrefix("DOCUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	cfg.Model = v.GetString("model")
	cfg.MaxTokens = v.GetInt("max_tokens")
	cfg.Backend = models.Backend(v.GetString("backend"))
	cfg.ClaudeCommand = v.GetString("claude_command")
	cfg.DiscoverTools = v.GetBool("discover_tools")
	cfg.CodebasePath = v.GetString("codebase_path")
	cfg.API.BaseURL = strings.TrimRight(v.GetString("api.base_url"), "/")
	cfg.API.Timeout = v.GetDuration("api.timeout")
	cfg.API.Key = cm.getenv("ANTHROPIC_API_KEY")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.File = v.GetString("log.file")
	cfg.EventsPath = v.GetString("events_path")

	cfg.KnowledgeBase = cm.readProvider(v, "knowledge_base", cfg.KnowledgeBase)
	cfg.BrowserAutomation = cm.readProvider(v, "browser_automation", cfg.BrowserAutomation)

	for name, id := range v.GetStringMapString("pages") {
		cfg.Pages[name] = id
	}

	return cfg, nil
}

// readProvider overlays the keys present under prefix onto def and expands
// env references.
func (cm *viperConfigManager) readProvider(v *viper.Viper, prefix string, def models.ProviderDescriptor) models.ProviderDescriptor {
	p := def
	if v.IsSet(prefix + ".name") {
		p.Name = v.GetString(prefix + ".name")
	}
	if v.IsSet(prefix + ".label") {
		p.Label = v.GetString(prefix + ".label")
	}
	if v.IsSet(prefix + ".command") {
		p.Command = v.GetString(prefix + ".command")
	}
	if v.IsSet(prefix + ".args") {
		p.Args = v.GetStringSlice(prefix + ".args")
	}
	if v.IsSet(prefix + ".env") {
		p.Env = v.GetStringMapString(prefix + ".env")
	}

	expanded := make(map[string]string, len(p.Env))
	for k, val := range p.Env {
		// Viper lowercases map keys; env var names are conventionally upper case.
		expanded[strings.ToUpper(k)] = os.Expand(val, cm.getenv)
	}
	p.Env = expanded
	return p
}

var validBackends = map[models.Backend]bool{
	models.BackendAPI:       true,
	models.BackendClaudeCLI: true,
}

// ValidateConfig checks that the settings needed to dispatch are present and
// returns every problem found in one error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", ErrConfiguration)
	}

	var errs []string

	if !validBackends[cfg.Backend] {
		errs = append(errs, fmt.Sprintf("backend %q is invalid, must be one of: api, claude-cli", cfg.Backend))
	}
	if cfg.Model == "" {
		errs = append(errs, "model must not be empty")
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, fmt.Sprintf("max_tokens must be positive, got %d", cfg.MaxTokens))
	}

	switch cfg.Backend {
	case models.BackendAPI:
		if cfg.API.Key == "" {
			errs = append(errs, "ANTHROPIC_API_KEY environment variable not set")
		}
		if cfg.API.BaseURL == "" {
			errs = append(errs, "api.base_url must not be empty")
		}
	case models.BackendClaudeCLI:
		if cfg.ClaudeCommand == "" {
			errs = append(errs, "claude_command must not be empty")
		}
	}

	errs = append(errs, validateProvider("knowledge_base", cfg.KnowledgeBase)...)
	errs = append(errs, validateProvider("browser_automation", cfg.BrowserAutomation)...)

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrConfiguration, strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateProvider(key string, p models.ProviderDescriptor) []string {
	var errs []string
	if p.Name == "" {
		errs = append(errs, key+".name must not be empty")
	}
	if p.Command == "" {
		errs = append(errs, key+".command must not be empty")
	}
	keys := make([]string, 0, len(p.Env))
	for k := range p.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, envKey := range keys {
		if p.Env[envKey] == "" {
			errs = append(errs, fmt.Sprintf("%s environment variable not set (required by %s)", envKey, key))
		}
	}
	return errs
}
