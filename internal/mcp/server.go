// Package mcp provides an MCP (Model Context Protocol) server that exposes
// docup actions as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/docup/internal/core"
	"github.com/valter-silva-au/docup/internal/storage"
	"github.com/valter-silva-au/docup/pkg/models"
)

// Server wraps docup services and exposes them as MCP tools.
type Server struct {
	server       *gomcp.Server
	orchestrator *core.Orchestrator
	pages        storage.PageStore
	events       core.EventLogger
}

// NewServer creates a new MCP server. events may be nil.
func NewServer(orchestrator *core.Orchestrator, pages storage.PageStore, events core.EventLogger, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		orchestrator: orchestrator,
		pages:        pages,
		events:       events,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "docup", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves on stdio, blocking until the client disconnects or the context
// is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type updateInput struct {
	Doc          string `json:"doc" jsonschema:"required,the documentation name (e.g. auth-guide)"`
	Instructions string `json:"instructions" jsonschema:"required,what to change in the page"`
	DocType      string `json:"doc_type,omitempty" jsonschema:"user or technical. Defaults to user."`
	PageID       string `json:"page_id,omitempty" jsonschema:"knowledge-base page ID. Looked up by doc name when omitted."`
	PriorContent string `json:"prior_content,omitempty" jsonschema:"optional snapshot of the current page content"`
}

type createInput struct {
	Doc          string `json:"doc" jsonschema:"required,the name of the new page"`
	Instructions string `json:"instructions" jsonschema:"required,what the new page should cover"`
	DocType      string `json:"doc_type,omitempty" jsonschema:"user or technical. Defaults to user."`
	ParentID     string `json:"parent_id,omitempty" jsonschema:"knowledge-base page ID to create the page under"`
}

type reviewInput struct {
	Doc     string `json:"doc" jsonschema:"required,the documentation name"`
	DocType string `json:"doc_type,omitempty" jsonschema:"user or technical. Defaults to user."`
	PageID  string `json:"page_id,omitempty" jsonschema:"knowledge-base page ID. Looked up by doc name when omitted."`
}

type toolCallOutput struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

type resultOutput struct {
	Text         string           `json:"text"`
	ToolCalls    []toolCallOutput `json:"tool_calls,omitempty"`
	StopReason   string           `json:"stop_reason"`
	InputTokens  int              `json:"input_tokens"`
	OutputTokens int              `json:"output_tokens"`
}

type registerPageInput struct {
	Name   string `json:"name" jsonschema:"required,the documentation name"`
	PageID string `json:"page_id" jsonschema:"required,the knowledge-base page ID"`
}

type registerPageOutput struct {
	Message string `json:"message"`
}

type listPagesInput struct{}

type pageOutput struct {
	Name       string `json:"name"`
	PageID     string `json:"page_id"`
	Registered string `json:"registered,omitempty"`
}

type listPagesOutput struct {
	Pages []pageOutput `json:"pages"`
	Count int          `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_documentation",
		Description: "Update an existing documentation page. The model reads the page through the knowledge-base provider, applies the instructions and writes it back.",
	}, s.handleUpdate)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "create_documentation",
		Description: "Create a new documentation page, optionally under a parent page.",
	}, s.handleCreate)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "review_documentation",
		Description: "Review a documentation page for accuracy and completeness without changing it. Requires a page ID or a registered page.",
	}, s.handleReview)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "register_page",
		Description: "Register the knowledge-base page ID for a documentation name.",
	}, s.handleRegisterPage)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_pages",
		Description: "List registered documentation pages and their page IDs.",
	}, s.handleListPages)
}

// --- Tool handlers ---

func (s *Server) handleUpdate(ctx context.Context, _ *gomcp.CallToolRequest, input updateInput) (*gomcp.CallToolResult, resultOutput, error) {
	docType, err := parseDocType(input.DocType)
	if err != nil {
		return errorResult(err.Error()), resultOutput{}, nil
	}
	if input.Doc == "" {
		return errorResult("doc is required"), resultOutput{}, nil
	}

	res, err := s.orchestrator.Run(ctx, models.TaskRequest{
		Identity:     models.DocumentIdentity{Name: input.Doc, PageID: input.PageID},
		DocType:      docType,
		Action:       models.ActionUpdate,
		Instructions: input.Instructions,
		PriorContent: input.PriorContent,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("updating %s: %s", input.Doc, err)), resultOutput{}, nil
	}
	return nil, toResultOutput(res), nil
}

func (s *Server) handleCreate(ctx context.Context, _ *gomcp.CallToolRequest, input createInput) (*gomcp.CallToolResult, resultOutput, error) {
	docType, err := parseDocType(input.DocType)
	if err != nil {
		return errorResult(err.Error()), resultOutput{}, nil
	}
	if input.Doc == "" {
		return errorResult("doc is required"), resultOutput{}, nil
	}

	res, err := s.orchestrator.Create(ctx, input.Doc, docType, input.Instructions, input.ParentID)
	if err != nil {
		return errorResult(fmt.Sprintf("creating %s: %s", input.Doc, err)), resultOutput{}, nil
	}
	return nil, toResultOutput(res), nil
}

func (s *Server) handleReview(ctx context.Context, _ *gomcp.CallToolRequest, input reviewInput) (*gomcp.CallToolResult, resultOutput, error) {
	docType, err := parseDocType(input.DocType)
	if err != nil {
		return errorResult(err.Error()), resultOutput{}, nil
	}
	if input.Doc == "" {
		return errorResult("doc is required"), resultOutput{}, nil
	}

	res, err := s.orchestrator.Review(ctx, models.DocumentIdentity{Name: input.Doc, PageID: input.PageID}, docType)
	if err != nil {
		msg := fmt.Sprintf("reviewing %s: %s", input.Doc, err)
		if errors.Is(err, core.ErrMissingTarget) {
			msg += " (call register_page first)"
		}
		return errorResult(msg), resultOutput{}, nil
	}
	return nil, toResultOutput(res), nil
}

func (s *Server) handleRegisterPage(_ context.Context, _ *gomcp.CallToolRequest, input registerPageInput) (*gomcp.CallToolResult, registerPageOutput, error) {
	if err := core.RegisterPage(s.pages, s.events, input.Name, input.PageID); err != nil {
		return errorResult(err.Error()), registerPageOutput{}, nil
	}
	return nil, registerPageOutput{
		Message: fmt.Sprintf("registered %s -> %s", input.Name, input.PageID),
	}, nil
}

func (s *Server) handleListPages(_ context.Context, _ *gomcp.CallToolRequest, _ listPagesInput) (*gomcp.CallToolResult, listPagesOutput, error) {
	entries := s.pages.List()
	out := listPagesOutput{
		Pages: make([]pageOutput, len(entries)),
		Count: len(entries),
	}
	for i, e := range entries {
		out.Pages[i] = pageOutput{Name: e.Name, PageID: e.PageID}
		if !e.Registered.IsZero() {
			out.Pages[i].Registered = e.Registered.Format(time.RFC3339)
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func parseDocType(s string) (models.DocType, error) {
	if s == "" {
		return models.DocTypeUser, nil
	}
	return core.ParseDocType(s)
}

func toResultOutput(res *models.ModelResult) resultOutput {
	out := resultOutput{
		Text:         res.Text(),
		StopReason:   res.StopReason,
		InputTokens:  res.Usage.InputTokens,
		OutputTokens: res.Usage.OutputTokens,
	}
	for _, block := range res.Content {
		if block.Type != models.BlockToolUse {
			continue
		}
		input := block.Input
		if input == nil {
			input = map[string]any{}
		}
		out.ToolCalls = append(out.ToolCalls, toolCallOutput{Name: block.Name, Input: input})
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
