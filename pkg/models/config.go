package models

import "time"

// Backend selects how a request reaches the model.
type Backend string

const (
	// BackendAPI calls the Messages API over HTTP.
	BackendAPI Backend = "api"
	// BackendClaudeCLI runs the claude CLI in print mode with the granted
	// MCP servers attached.
	BackendClaudeCLI Backend = "claude-cli"
)

// ProviderDescriptor describes an MCP server that can be granted to the
// model. The core forwards it to the dispatcher without interpreting it.
type ProviderDescriptor struct {
	// Name is the MCP server key, e.g. "notion".
	Name string `yaml:"name" mapstructure:"name" json:"name"`
	// Label is how prompts refer to the server, e.g. "Notion".
	Label   string            `yaml:"label" mapstructure:"label" json:"label"`
	Command string            `yaml:"command" mapstructure:"command" json:"command"`
	Args    []string          `yaml:"args,omitempty" mapstructure:"args" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" mapstructure:"env" json:"env,omitempty"`
}

// APIConfig holds settings for the HTTP backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Key     string        `yaml:"-" mapstructure:"-"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	// File, when set, sends log output to a rotating file instead of stderr.
	File string `yaml:"file,omitempty" mapstructure:"file"`
}

// Config holds docup settings read from .docup.yaml and the environment.
type Config struct {
	Model         string  `yaml:"model" mapstructure:"model"`
	MaxTokens     int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Backend       Backend `yaml:"backend" mapstructure:"backend"`
	ClaudeCommand string  `yaml:"claude_command" mapstructure:"claude_command"`
	DiscoverTools bool    `yaml:"discover_tools" mapstructure:"discover_tools"`
	CodebasePath  string  `yaml:"codebase_path" mapstructure:"codebase_path"`

	API APIConfig `yaml:"api" mapstructure:"api"`

	KnowledgeBase     ProviderDescriptor `yaml:"knowledge_base" mapstructure:"knowledge_base"`
	BrowserAutomation ProviderDescriptor `yaml:"browser_automation" mapstructure:"browser_automation"`

	// Pages seeds the name to page ID registry.
	Pages map[string]string `yaml:"pages,omitempty" mapstructure:"pages"`

	Log        LogConfig `yaml:"log" mapstructure:"log"`
	EventsPath string    `yaml:"events_path" mapstructure:"events_path"`
}

// Provider returns the descriptor backing a remote capability.
func (c *Config) Provider(capability Capability) (ProviderDescriptor, bool) {
	switch capability {
	case CapabilityKnowledgeBase:
		return c.KnowledgeBase, true
	case CapabilityBrowserAutomation:
		return c.BrowserAutomation, true
	default:
		return ProviderDescriptor{}, false
	}
}

// PageEntry is one registered name to page ID mapping.
type PageEntry struct {
	Name       string    `yaml:"name" json:"name"`
	PageID     string    `yaml:"page_id" json:"page_id"`
	Registered time.Time `yaml:"registered" json:"registered"`
}
