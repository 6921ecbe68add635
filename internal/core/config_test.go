package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/docup/pkg/models"
)

// --- Helper ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func newTestConfigManager(dir string, env map[string]string) *viperConfigManager {
	return &viperConfigManager{
		basePath: dir,
		getenv:   func(k string) string { return env[k] },
	}
}

// --- LoadConfig tests ---

func TestLoadConfig_Defaults_WhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cm := newTestConfigManager(dir, nil)

	cfg, err := cm.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.MaxTokens != 8000 {
		t.Errorf("MaxTokens = %d, want 8000", cfg.MaxTokens)
	}
	if cfg.Backend != models.BackendAPI {
		t.Errorf("Backend = %q, want api", cfg.Backend)
	}
	if !cfg.DiscoverTools {
		t.Error("DiscoverTools should default to true")
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Timeout != 10*time.Minute {
		t.Errorf("API.Timeout = %v, want 10m", cfg.API.Timeout)
	}
	if cfg.KnowledgeBase.Name != "notion" || cfg.KnowledgeBase.Command != "npx" {
		t.Errorf("KnowledgeBase = %+v", cfg.KnowledgeBase)
	}
	if cfg.BrowserAutomation.Name != "playwright" {
		t.Errorf("BrowserAutomation = %+v", cfg.BrowserAutomation)
	}
	if cfg.CodebasePath != dir {
		t.Errorf("CodebasePath = %q, want %q", cfg.CodebasePath, dir)
	}
	if cfg.EventsPath != filepath.Join(dir, DataDirName, "events.jsonl") {
		t.Errorf("EventsPath = %q", cfg.EventsPath)
	}
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".docup.yaml", `
model: claude-opus-4-1
max_tokens: 4096
backend: claude-cli
discover_tools: false
codebase_path: /src/app
api:
  base_url: https://proxy.internal/
  timeout: 90s
knowledge_base:
  name: confluence
  label: Confluence
  command: confluence-mcp
  args: ["--space", "DOCS"]
  env:
    CONFLUENCE_TOKEN: ${CONF_TOKEN}
pages:
  auth-guide: abc123
log:
  level: debug
`)
	cm := newTestConfigManager(dir, map[string]string{
		"ANTHROPIC_API_KEY": "sk-test",
		"CONF_TOKEN":        "secret",
	})

	cfg, err := cm.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Model != "claude-opus-4-1" || cfg.MaxTokens != 4096 {
		t.Errorf("Model/MaxTokens = %q/%d", cfg.Model, cfg.MaxTokens)
	}
	if cfg.Backend != models.BackendClaudeCLI {
		t.Errorf("Backend = %q", cfg.Backend)
	}
	if cfg.DiscoverTools {
		t.Error("DiscoverTools = true, want false")
	}
	if cfg.CodebasePath != "/src/app" {
		t.Errorf("CodebasePath = %q", cfg.CodebasePath)
	}
	if cfg.API.BaseURL != "https://proxy.internal" {
		t.Errorf("API.BaseURL = %q, trailing slash should be trimmed", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 90*time.Second {
		t.Errorf("API.Timeout = %v", cfg.API.Timeout)
	}
	if cfg.API.Key != "sk-test" {
		t.Errorf("API.Key = %q", cfg.API.Key)
	}

	kb := cfg.KnowledgeBase
	if kb.Name != "confluence" || kb.Label != "Confluence" || kb.Command != "confluence-mcp" {
		t.Errorf("KnowledgeBase = %+v", kb)
	}
	if strings.Join(kb.Args, " ") != "--space DOCS" {
		t.Errorf("KnowledgeBase.Args = %v", kb.Args)
	}
	if kb.Env["CONFLUENCE_TOKEN"] != "secret" {
		t.Errorf("KnowledgeBase.Env = %v, want expanded upper-case key", kb.Env)
	}
	// Keys absent from the file keep their defaults.
	if cfg.BrowserAutomation.Name != "playwright" {
		t.Errorf("BrowserAutomation = %+v", cfg.BrowserAutomation)
	}
	if cfg.Pages["auth-guide"] != "abc123" {
		t.Errorf("Pages = %v", cfg.Pages)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadConfig_ExpandsDefaultNotionKey(t *testing.T) {
	cm := newTestConfigManager(t.TempDir(), map[string]string{"NOTION_API_KEY": "ntn_123"})

	cfg, err := cm.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.KnowledgeBase.Env["NOTION_API_KEY"] != "ntn_123" {
		t.Errorf("KnowledgeBase.Env = %v", cfg.KnowledgeBase.Env)
	}
}

func TestLoadConfig_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".docup.yaml", "model: [unclosed\n")

	if _, err := newTestConfigManager(dir, nil).LoadConfig(); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

// --- ValidateConfig tests ---

func validConfig() *models.Config {
	cfg := DefaultConfig("/tmp/base")
	cfg.API.Key = "sk-test"
	cfg.KnowledgeBase.Env = map[string]string{"NOTION_API_KEY": "ntn_123"}
	return cfg
}

func TestValidateConfig_Valid(t *testing.T) {
	cm := newTestConfigManager("", nil)
	if err := cm.ValidateConfig(validConfig()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateConfig_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Config)
		want   string
	}{
		{"missing api key", func(c *models.Config) { c.API.Key = "" }, "ANTHROPIC_API_KEY environment variable not set"},
		{"missing notion key", func(c *models.Config) { c.KnowledgeBase.Env["NOTION_API_KEY"] = "" }, "NOTION_API_KEY environment variable not set (required by knowledge_base)"},
		{"invalid backend", func(c *models.Config) { c.Backend = "grpc" }, `backend "grpc" is invalid`},
		{"empty model", func(c *models.Config) { c.Model = "" }, "model must not be empty"},
		{"zero max tokens", func(c *models.Config) { c.MaxTokens = 0 }, "max_tokens must be positive"},
		{"empty base url", func(c *models.Config) { c.API.BaseURL = "" }, "api.base_url must not be empty"},
		{"empty claude command", func(c *models.Config) {
			c.Backend = models.BackendClaudeCLI
			c.ClaudeCommand = ""
		}, "claude_command must not be empty"},
		{"empty provider command", func(c *models.Config) { c.BrowserAutomation.Command = "" }, "browser_automation.command must not be empty"},
	}

	cm := newTestConfigManager("", nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cm.ValidateConfig(cfg)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("error = %v, want ErrConfiguration", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateConfig_ClaudeCLIDoesNotNeedAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Backend = models.BackendClaudeCLI
	cfg.API.Key = ""

	if err := newTestConfigManager("", nil).ValidateConfig(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateConfig_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.API.Key = ""
	cfg.Model = ""

	err := newTestConfigManager("", nil).ValidateConfig(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") || !strings.Contains(err.Error(), "model must not be empty") {
		t.Errorf("expected both problems reported, got %q", err)
	}
}

func TestValidateConfig_NilConfig_ReturnsError(t *testing.T) {
	if err := newTestConfigManager("", nil).ValidateConfig(nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}
