package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/docup/pkg/models"
)

// ReviewReadOnlyConstraint closes every review prompt. Reviews report
// findings only and never write back.
const ReviewReadOnlyConstraint = "Do NOT update the documentation yet. Only provide your analysis and recommendations."

const (
	defaultKnowledgeBaseLabel = "Notion"
	defaultBrowserLabel       = "Playwright"
)

// Header labels used in prompt context headers.
const (
	HeaderDocument     = "Document"
	HeaderDocumentName = "Document Name"
	HeaderParentPageID = "Parent Page ID"
)

// PromptBuilder assembles the instruction payloads for each action. It is
// stateless after construction and safe for concurrent use.
type PromptBuilder struct {
	labels providerLabels
}

// NewPromptBuilder creates a PromptBuilder that refers to providers by the
// labels in cfg. Missing labels fall back to Notion and Playwright.
func NewPromptBuilder(cfg *models.Config) *PromptBuilder {
	l := providerLabels{
		KnowledgeBase: defaultKnowledgeBaseLabel,
		Browser:       defaultBrowserLabel,
	}
	if cfg != nil {
		if cfg.KnowledgeBase.Label != "" {
			l.KnowledgeBase = cfg.KnowledgeBase.Label
		}
		if cfg.BrowserAutomation.Label != "" {
			l.Browser = cfg.BrowserAutomation.Label
		}
		l.CodebasePath = cfg.CodebasePath
	}
	return &PromptBuilder{labels: l}
}

// PageIDLabel is the header label carrying the knowledge-base page ID.
func (b *PromptBuilder) PageIDLabel() string {
	return b.labels.KnowledgeBase + " Page ID"
}

// BuildUpdate builds the prompt for updating an existing page. priorContent
// is normally empty; when set it is included verbatim between delimiters.
func (b *PromptBuilder) BuildUpdate(identity models.DocumentIdentity, docType models.DocType, instructions, priorContent string) (models.Prompt, error) {
	kind, err := kindOf(docType)
	if err != nil {
		return models.Prompt{}, err
	}
	if err := requireInstructions(models.ActionUpdate, instructions); err != nil {
		return models.Prompt{}, err
	}

	header := []models.HeaderLine{{Label: HeaderDocument, Value: identity.Name}}
	if identity.PageID != "" {
		header = append(header, models.HeaderLine{Label: b.PageIDLabel(), Value: identity.PageID})
	}

	p := models.Prompt{
		Action:       models.ActionUpdate,
		DocType:      docType,
		Role:         fmt.Sprintf("You are a documentation specialist updating %s documentation.", docType),
		Header:       header,
		Instructions: instructions,
		PriorContent: priorContent,
	}
	applyBrief(&p, kind.updateBrief(b.labels))

	if identity.PageID != "" {
		p.Location = fmt.Sprintf("Use the %s MCP server to read the current content from page ID: %s before editing it.",
			b.labels.KnowledgeBase, identity.PageID)
	}
	return p, nil
}

// BuildCreate builds the prompt for creating a new page, optionally under a
// parent page.
func (b *PromptBuilder) BuildCreate(identity models.DocumentIdentity, docType models.DocType, instructions, parentID string) (models.Prompt, error) {
	kind, err := kindOf(docType)
	if err != nil {
		return models.Prompt{}, err
	}
	if err := requireInstructions(models.ActionCreate, instructions); err != nil {
		return models.Prompt{}, err
	}

	header := []models.HeaderLine{{Label: HeaderDocumentName, Value: identity.Name}}
	if parentID != "" {
		header = append(header, models.HeaderLine{Label: HeaderParentPageID, Value: parentID})
	}

	p := models.Prompt{
		Action:       models.ActionCreate,
		DocType:      docType,
		Role:         fmt.Sprintf("You are a documentation specialist creating new %s documentation.", docType),
		Header:       header,
		Instructions: instructions,
	}
	applyBrief(&p, kind.createBrief(b.labels))

	if parentID != "" {
		p.Location = fmt.Sprintf("Create the new page under parent page ID: %s using the %s MCP server.",
			parentID, b.labels.KnowledgeBase)
	}
	return p, nil
}

// BuildReview builds the read-only review prompt. identity.PageID is
// required.
func (b *PromptBuilder) BuildReview(identity models.DocumentIdentity, docType models.DocType) (models.Prompt, error) {
	kind, err := kindOf(docType)
	if err != nil {
		return models.Prompt{}, err
	}
	if identity.PageID == "" {
		return models.Prompt{}, fmt.Errorf("%w: no page ID for %q", ErrMissingTarget, identity.Name)
	}

	return models.Prompt{
		Action:  models.ActionReview,
		DocType: docType,
		Role:    fmt.Sprintf("You are a documentation specialist reviewing %s documentation.", docType),
		Header: []models.HeaderLine{
			{Label: HeaderDocument, Value: identity.Name},
			{Label: b.PageIDLabel(), Value: identity.PageID},
		},
		Tasks: []models.PromptTask{
			{Step: "Review the documentation for accuracy, clarity, and completeness"},
			{Step: kind.reviewVerification(b.labels)},
			{Step: "Identify any issues:", Details: []string{
				"Outdated information",
				"Unclear or confusing sections",
				"Missing information",
				"Broken or incorrect examples",
			}},
			{Step: "Provide a detailed report of findings and suggested improvements"},
		},
		Location: fmt.Sprintf("Use the %s MCP server to read the content from page ID: %s",
			b.labels.KnowledgeBase, identity.PageID),
		Constraint: ReviewReadOnlyConstraint,
	}, nil
}

func applyBrief(p *models.Prompt, br brief) {
	p.Brief = br.Intro
	p.Focus = br.Focus
	p.Access = br.Access
	p.Tasks = br.Tasks
}

func requireInstructions(action models.Action, instructions string) error {
	if strings.TrimSpace(instructions) == "" {
		return fmt.Errorf("%w: instructions are required for %s", ErrMissingInput, action)
	}
	return nil
}
