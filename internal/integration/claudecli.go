package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/valter-silva-au/docup/internal/core"
	"github.com/valter-silva-au/docup/pkg/models"
)

// codebaseTools are the read-only claude CLI tools allowed when a request is
// granted CapabilityCodebaseAccess.
var codebaseTools = []string{"Read", "Glob", "Grep"}

// ClaudeCLIDispatcher runs the claude CLI once in print mode with only the
// granted providers attached as MCP servers. Unlike the API backend the agent
// can act through the providers during the call.
type ClaudeCLIDispatcher struct {
	executor CLIExecutor
	command  string
	model    string
	dir      string
	cfg      *models.Config
}

// NewClaudeCLIDispatcher creates a dispatcher that runs cfg.ClaudeCommand in
// cfg.CodebasePath.
func NewClaudeCLIDispatcher(cfg *models.Config, executor CLIExecutor) *ClaudeCLIDispatcher {
	return &ClaudeCLIDispatcher{
		executor: executor,
		command:  cfg.ClaudeCommand,
		model:    cfg.Model,
		dir:      cfg.CodebasePath,
		cfg:      cfg,
	}
}

type mcpServerEntry struct {
	Type    string            `json:"type"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

type mcpConfigFile struct {
	MCPServers map[string]mcpServerEntry `json:"mcpServers"`
}

// cliResult is the JSON printed by `claude -p --output-format json`.
type cliResult struct {
	Type       string `json:"type"`
	Subtype    string `json:"subtype"`
	IsError    bool   `json:"is_error"`
	Result     string `json:"result"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Dispatch writes a temporary MCP config for the granted providers and runs
// the CLI with the prompt on stdin.
func (d *ClaudeCLIDispatcher) Dispatch(ctx context.Context, caps models.CapabilitySet, prompt string) (*models.ModelResult, error) {
	providers := grantedProviders(d.cfg, caps)

	configPath, err := writeMCPConfig(providers)
	if err != nil {
		return nil, d.fail(err)
	}
	defer func() { _ = os.Remove(configPath) }()

	res, err := d.executor.Exec(ctx, CLIExecConfig{
		Command: d.command,
		Args:    d.args(providers, caps.Has(models.CapabilityCodebaseAccess), configPath),
		Dir:     d.dir,
		Stdin:   strings.NewReader(prompt),
	})
	if err != nil {
		return nil, d.fail(err)
	}

	return d.parse(res)
}

func (d *ClaudeCLIDispatcher) args(providers []models.ProviderDescriptor, codebase bool, configPath string) []string {
	allowed := make([]string, 0, len(providers)+len(codebaseTools))
	for _, p := range providers {
		allowed = append(allowed, "mcp__"+p.Name)
	}
	if codebase {
		allowed = append(allowed, codebaseTools...)
	}

	args := []string{"-p", "--output-format", "json"}
	if d.model != "" {
		args = append(args, "--model", d.model)
	}
	return append(args,
		"--mcp-config", configPath,
		"--strict-mcp-config",
		"--allowedTools", strings.Join(allowed, ","),
	)
}

func (d *ClaudeCLIDispatcher) parse(res *CLIExecResult) (*models.ModelResult, error) {
	var out cliResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &out); err != nil {
		if res.ExitCode != 0 {
			return nil, d.fail(fmt.Errorf("exit code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr)))
		}
		return nil, d.fail(fmt.Errorf("parsing CLI output: %w", err))
	}
	if out.IsError || res.ExitCode != 0 {
		msg := out.Result
		if msg == "" {
			msg = strings.TrimSpace(res.Stderr)
		}
		return nil, d.fail(fmt.Errorf("%s (exit code %d): %s", out.Subtype, res.ExitCode, msg))
	}

	stop := out.StopReason
	if stop == "" {
		stop = "end_turn"
		if out.Subtype != "" && out.Subtype != "success" {
			stop = out.Subtype
		}
	}

	content := []models.ContentBlock{}
	if out.Result != "" {
		content = append(content, models.TextBlock(out.Result))
	}
	return &models.ModelResult{
		Content:    content,
		StopReason: stop,
		Usage: models.Usage{
			InputTokens:  out.Usage.InputTokens,
			OutputTokens: out.Usage.OutputTokens,
		},
	}, nil
}

func (d *ClaudeCLIDispatcher) fail(err error) error {
	return &core.DispatchError{Backend: string(models.BackendClaudeCLI), Err: err}
}

// writeMCPConfig writes an .mcp.json-style file listing providers. The file
// holds provider credentials, so it is private to the user.
func writeMCPConfig(providers []models.ProviderDescriptor) (string, error) {
	cfg := mcpConfigFile{MCPServers: make(map[string]mcpServerEntry, len(providers))}
	for _, p := range providers {
		cfg.MCPServers[p.Name] = mcpServerEntry{
			Type:    "stdio",
			Command: p.Command,
			Args:    p.Args,
			Env:     p.Env,
		}
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling MCP config: %w", err)
	}

	f, err := os.CreateTemp("", "docup-mcp-*.json")
	if err != nil {
		return "", fmt.Errorf("creating MCP config: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("writing MCP config: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("closing MCP config: %w", err)
	}
	return path, nil
}
