package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/docup/pkg/models"
	"golang.org/x/sync/errgroup"
)

// ToolDefinition is one tool exposed by a provider's MCP server.
type ToolDefinition struct {
	Provider    string
	Name        string
	Description string
	InputSchema any
}

// ProviderStatus is the result of checking a provider's command.
type ProviderStatus struct {
	Name         string        `json:"name"`
	Command      string        `json:"command"`
	Healthy      bool          `json:"healthy"`
	ToolCount    int           `json:"tool_count,omitempty"`
	Version      string        `json:"version,omitempty"`
	ResponseTime time.Duration `json:"response_time_ms"`
	Error        string        `json:"error,omitempty"`
}

// ToolCatalog discovers the tools offered by MCP providers.
type ToolCatalog interface {
	// Tools connects to every provider and returns their tools, grouped in
	// provider order. Any provider failure fails the whole call.
	Tools(ctx context.Context, providers []models.ProviderDescriptor) ([]ToolDefinition, error)

	// Check verifies each provider's command is installed and, when listTools is
	// set, that its server answers a tools/list request.
	Check(ctx context.Context, providers []models.ProviderDescriptor, listTools bool) []ProviderStatus
}

type mcpToolCatalog struct {
	version string
	// transport builds the client transport for a provider. Replaced in
	// tests with in-memory transports.
	transport func(ctx context.Context, p models.ProviderDescriptor) mcp.Transport
}

// NewMCPToolCatalog creates a ToolCatalog that launches each provider as a
// stdio MCP server.
func NewMCPToolCatalog(version string) ToolCatalog {
	if version == "" {
		version = "dev"
	}
	return &mcpToolCatalog{version: version, transport: commandTransport}
}

func commandTransport(ctx context.Context, p models.ProviderDescriptor) mcp.Transport {
	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Env = providerEnv(os.Environ(), p.Env)
	return &mcp.CommandTransport{Command: cmd}
}

// providerEnv appends the provider's variables, sorted for determinism, to
// base.
func providerEnv(base []string, env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, len(base), len(base)+len(keys))
	copy(out, base)
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func (c *mcpToolCatalog) Tools(ctx context.Context, providers []models.ProviderDescriptor) ([]ToolDefinition, error) {
	perProvider := make([][]ToolDefinition, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			tools, err := c.listTools(gctx, p)
			if err != nil {
				return fmt.Errorf("listing tools of provider %s: %w", p.Name, err)
			}
			perProvider[i] = tools
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []ToolDefinition
	for _, tools := range perProvider {
		all = append(all, tools...)
	}
	return all, nil
}

func (c *mcpToolCatalog) listTools(ctx context.Context, p models.ProviderDescriptor) ([]ToolDefinition, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "docup", Version: c.version}, nil)
	session, err := client.Connect(ctx, c.transport(ctx, p), nil)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer func() { _ = session.Close() }()

	var tools []ToolDefinition
	params := &mcp.ListToolsParams{}
	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, t := range res.Tools {
			tools = append(tools, ToolDefinition{
				Provider:    p.Name,
				Name:        t.Name,
				Description: t.Description,
				InputSchema: t.InputSchema,
			})
		}
		if res.NextCursor == "" {
			return tools, nil
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

func (c *mcpToolCatalog) Check(ctx context.Context, providers []models.ProviderDescriptor, listTools bool) []ProviderStatus {
	statuses := make([]ProviderStatus, len(providers))
	for i, p := range providers {
		status := ProviderStatus{Name: p.Name, Command: p.Command}
		start := time.Now()

		switch {
		case p.Command == "":
			status.Error = "no command configured"
		default:
			if _, err := lookPath(p.Command); err != nil {
				status.Error = fmt.Sprintf("command not found: %s", p.Command)
				break
			}
			if !listTools {
				status.Healthy = true
				break
			}
			tools, err := c.listTools(ctx, p)
			if err != nil {
				status.Error = err.Error()
				break
			}
			status.Healthy = true
			status.ToolCount = len(tools)
		}

		status.ResponseTime = time.Since(start)
		statuses[i] = status
	}
	return statuses
}

// lookPath wraps exec.LookPath for testability.
var lookPath = exec.LookPath
