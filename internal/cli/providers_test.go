package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/docup/internal/integration"
	"github.com/valter-silva-au/docup/pkg/models"
)

func providersConfig() *models.Config {
	return &models.Config{
		KnowledgeBase:     models.ProviderDescriptor{Name: "notion", Command: "notion-mcp"},
		BrowserAutomation: models.ProviderDescriptor{Name: "playwright", Command: "playwright-mcp"},
	}
}

func TestProviders_AllHealthy(t *testing.T) {
	setupCLI(t)
	catalog := &fakeCatalog{statuses: []integration.ProviderStatus{
		{Name: "notion", Command: "notion-mcp", Healthy: true, ToolCount: 12, ResponseTime: 30 * time.Millisecond},
		{Name: "playwright", Command: "playwright-mcp", Healthy: true, ToolCount: 20},
	}}
	Catalog = catalog
	Config = providersConfig()

	out, err := run(t, "providers", "--list-tools")
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	if !catalog.listTools {
		t.Error("--list-tools not passed to the catalog")
	}
	if !strings.Contains(out, "notion-mcp (12 tools, 30ms)") {
		t.Errorf("output = %q", out)
	}
}

func TestProviders_Unhealthy(t *testing.T) {
	setupCLI(t)
	Catalog = &fakeCatalog{statuses: []integration.ProviderStatus{
		{Name: "notion", Command: "notion-mcp", Healthy: true},
		{Name: "playwright", Command: "playwright-mcp", Error: "command not found: playwright-mcp"},
	}}
	Config = providersConfig()

	out, err := run(t, "providers")
	if err == nil || !strings.Contains(err.Error(), "1 of 2 providers unavailable") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "command not found: playwright-mcp") {
		t.Errorf("output = %q", out)
	}
}

type versionExecutor struct{}

func (versionExecutor) Exec(context.Context, integration.CLIExecConfig) (*integration.CLIExecResult, error) {
	return &integration.CLIExecResult{Stdout: "2.1.50 (Claude Code)\n"}, nil
}

func TestProviders_ClaudeCLIBackendReportsVersion(t *testing.T) {
	setupCLI(t)
	Catalog = &fakeCatalog{statuses: []integration.ProviderStatus{
		{Name: "notion", Command: "notion-mcp", Healthy: true},
	}}
	Executor = versionExecutor{}
	Config = providersConfig()
	Config.Backend = models.BackendClaudeCLI
	Config.ClaudeCommand = "claude"

	out, err := run(t, "providers")
	if err != nil {
		t.Fatalf("providers: %v", err)
	}
	if !strings.Contains(out, "claude (version 2.1.50)") {
		t.Errorf("output = %q", out)
	}
}
