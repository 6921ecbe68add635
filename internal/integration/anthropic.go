package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/valter-silva-au/docup/internal/core"
	"github.com/valter-silva-au/docup/pkg/models"
)

const anthropicVersion = "2023-06-01"

// AnthropicDispatcher sends one request to the Messages API. The tools of the
// granted providers are declared on the request so the model can call them.
type AnthropicDispatcher struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	cfg        *models.Config
	catalog    ToolCatalog
}

// NewAnthropicDispatcher creates a dispatcher from cfg. catalog may be nil,
// in which case no tools are declared.
func NewAnthropicDispatcher(cfg *models.Config, catalog ToolCatalog) *AnthropicDispatcher {
	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &AnthropicDispatcher{
		baseURL:    cfg.API.BaseURL,
		apiKey:     cfg.API.Key,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		catalog:    catalog,
	}
}

type messagesRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	Messages  []messageParam `json:"messages"`
	Tools     []toolParam    `json:"tools,omitempty"`
}

type messageParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolParam struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"input_schema"`
}

type messagesResponse struct {
	Content []struct {
		Type  string         `json:"type"`
		Text  string         `json:"text"`
		Name  string         `json:"name"`
		Input map[string]any `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Dispatch performs a single POST /v1/messages call.
func (d *AnthropicDispatcher) Dispatch(ctx context.Context, caps models.CapabilitySet, prompt string) (*models.ModelResult, error) {
	tools, err := d.tools(ctx, caps)
	if err != nil {
		return nil, d.fail(err)
	}

	body, err := json.Marshal(messagesRequest{
		Model:     d.model,
		MaxTokens: d.maxTokens,
		Messages:  []messageParam{{Role: "user", Content: prompt}},
		Tools:     tools,
	})
	if err != nil {
		return nil, d.fail(fmt.Errorf("marshalling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, d.fail(fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", d.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, d.fail(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, d.fail(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, d.fail(fmt.Errorf("HTTP %d %s: %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message))
		}
		return nil, d.fail(fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(data)))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, d.fail(fmt.Errorf("parsing response: %w", err))
	}

	result := &models.ModelResult{
		Content:    make([]models.ContentBlock, 0, len(parsed.Content)),
		StopReason: parsed.StopReason,
		Usage: models.Usage{
			InputTokens:  parsed.Usage.InputTokens,
			OutputTokens: parsed.Usage.OutputTokens,
		},
	}
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			result.Content = append(result.Content, models.TextBlock(block.Text))
		case "tool_use":
			result.Content = append(result.Content, models.ToolUseBlock(block.Name, block.Input))
		}
		// Other block types (thinking, server tool results) are not surfaced.
	}
	return result, nil
}

func (d *AnthropicDispatcher) tools(ctx context.Context, caps models.CapabilitySet) ([]toolParam, error) {
	if d.catalog == nil {
		return nil, nil
	}
	providers := grantedProviders(d.cfg, caps)
	if len(providers) == 0 {
		return nil, nil
	}

	defs, err := d.catalog.Tools(ctx, providers)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(defs))
	params := make([]toolParam, 0, len(defs))
	for _, def := range defs {
		name := uniqueToolName(qualifiedToolName(def), seen)
		seen[name] = true
		schema := def.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		params = append(params, toolParam{Name: name, Description: def.Description, InputSchema: schema})
	}
	return params, nil
}

func (d *AnthropicDispatcher) fail(err error) error {
	return &core.DispatchError{Backend: string(models.BackendAPI), Err: err}
}

// grantedProviders maps remote capabilities to their descriptors, in
// capability order.
func grantedProviders(cfg *models.Config, caps models.CapabilitySet) []models.ProviderDescriptor {
	var out []models.ProviderDescriptor
	for _, c := range caps {
		if p, ok := cfg.Provider(c); ok {
			out = append(out, p)
		}
	}
	return out
}

var invalidToolNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

const maxToolNameLen = 64

// toolName coerces an MCP tool name into the character set and length the
// Messages API accepts.
func toolName(name string) string {
	name = invalidToolNameChars.ReplaceAllString(name, "_")
	if len(name) > maxToolNameLen {
		name = name[:maxToolNameLen]
	}
	return name
}

// qualifiedToolName prefixes the tool with its provider so two providers can
// expose tools of the same name.
func qualifiedToolName(def ToolDefinition) string {
	if def.Provider == "" {
		return toolName(def.Name)
	}
	return toolName(def.Provider + "__" + def.Name)
}

// uniqueToolName appends _2, _3, ... to name until it is not in seen. Names
// that only differed in characters lost to sanitizing or truncation stay
// distinct this way.
func uniqueToolName(name string, seen map[string]bool) string {
	if !seen[name] {
		return name
	}
	for n := 2; ; n++ {
		suffix := "_" + strconv.Itoa(n)
		base := name
		if len(base)+len(suffix) > maxToolNameLen {
			base = base[:maxToolNameLen-len(suffix)]
		}
		if candidate := base + suffix; !seen[candidate] {
			return candidate
		}
	}
}
