package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/docup/pkg/models"
)

// providerLabels names the providers and the codebase the way prompts refer
// to them.
type providerLabels struct {
	KnowledgeBase string
	Browser       string
	CodebasePath  string
}

func (l providerLabels) codebase() string {
	if l.CodebasePath == "" {
		return "The codebase"
	}
	return "The codebase at " + l.CodebasePath
}

// brief is the type-specific part of an update or create prompt.
type brief struct {
	Intro  string
	Focus  []string
	Access []string
	Tasks  []models.PromptTask
}

// docKind holds everything that differs between documentation types. Every
// supported type implements all of it, so a new type cannot silently fall
// back to another type's behavior.
type docKind interface {
	capabilities() models.CapabilitySet
	// readsCodebase reports whether the model checks this type against the
	// local source tree.
	readsCodebase() bool
	updateBrief(l providerLabels) brief
	createBrief(l providerLabels) brief
	reviewVerification(l providerLabels) string
}

var docKinds = map[models.DocType]docKind{
	models.DocTypeUser:      userDocs{},
	models.DocTypeTechnical: technicalDocs{},
}

func kindOf(t models.DocType) (docKind, error) {
	k, ok := docKinds[t]
	if !ok {
		return nil, fmt.Errorf("%w: doc type %q must be one of %v", ErrInvalidConfiguration, t, models.DocTypes)
	}
	return k, nil
}

// ParseDocType validates a user-supplied documentation type. Matching is
// case-insensitive.
func ParseDocType(s string) (models.DocType, error) {
	t := models.DocType(strings.ToLower(strings.TrimSpace(s)))
	if _, err := kindOf(t); err != nil {
		return "", err
	}
	return t, nil
}

func steps(texts ...string) []models.PromptTask {
	tasks := make([]models.PromptTask, len(texts))
	for i, t := range texts {
		tasks[i] = models.PromptTask{Step: t}
	}
	return tasks
}

// --- user-facing documentation ---

type userDocs struct{}

func (userDocs) capabilities() models.CapabilitySet {
	return models.CapabilitySet{models.CapabilityKnowledgeBase, models.CapabilityBrowserAutomation}
}

func (userDocs) readsCodebase() bool { return false }

func (userDocs) updateBrief(l providerLabels) brief {
	return brief{
		Intro: "This is USER-FACING documentation. Focus on:",
		Focus: []string{
			"Clear, simple language for end users",
			"Step-by-step instructions with screenshots where helpful",
			"Common use cases and examples",
			"Troubleshooting tips",
		},
		Access: []string{
			l.Browser + " MCP server: Use this to capture screenshots of the application for visual guidance",
			l.KnowledgeBase + " MCP server: Use this to read the current documentation and update it",
		},
		Tasks: steps(
			"Review the current documentation content (if any exists)",
			"Use "+l.Browser+" to navigate the application and capture relevant screenshots if needed",
			"Update or create the documentation based on the user's instructions",
			"Use the "+l.KnowledgeBase+" MCP server to write the updated content back to "+l.KnowledgeBase,
		),
	}
}

func (userDocs) createBrief(l providerLabels) brief {
	return brief{
		Intro: "This is USER-FACING documentation. Create comprehensive documentation that includes:",
		Focus: []string{
			"Overview and purpose",
			"Clear, step-by-step instructions",
			"Screenshots or visual aids (capture using " + l.Browser + ")",
			"Examples and common use cases",
			"Troubleshooting section if applicable",
		},
		Access: []string{
			l.Browser + " MCP server: Use this to explore the application and capture screenshots",
			l.KnowledgeBase + " MCP server: Use this to create the new documentation page",
		},
		Tasks: steps(
			"Use "+l.Browser+" to navigate and understand the application feature",
			"Capture relevant screenshots for visual guidance",
			"Structure and write the documentation",
			"Use the "+l.KnowledgeBase+" MCP server to create the new page in "+l.KnowledgeBase,
		),
	}
}

func (userDocs) reviewVerification(l providerLabels) string {
	return "Use " + l.Browser + " to verify the application behavior matches the documentation"
}

// --- technical/internal documentation ---

type technicalDocs struct{}

func (technicalDocs) capabilities() models.CapabilitySet {
	return models.CapabilitySet{models.CapabilityKnowledgeBase}
}

func (technicalDocs) readsCodebase() bool { return true }

func (technicalDocs) updateBrief(l providerLabels) brief {
	return brief{
		Intro: "This is TECHNICAL/INTERNAL documentation. Focus on:",
		Focus: []string{
			"Architecture and design decisions",
			"Implementation details",
			"Code examples and API references",
			"Developer onboarding information",
		},
		Access: []string{
			l.codebase() + ": Read relevant code files to understand implementation",
			l.KnowledgeBase + " MCP server: Use this to read the current documentation and update it",
		},
		Tasks: steps(
			"Review the current documentation content (if any exists)",
			"Examine relevant code files to understand the current implementation",
			"Update or create the documentation based on the user's instructions and code analysis",
			"Use the "+l.KnowledgeBase+" MCP server to write the updated content back to "+l.KnowledgeBase,
		),
	}
}

func (technicalDocs) createBrief(l providerLabels) brief {
	return brief{
		Intro: "This is TECHNICAL/INTERNAL documentation. Create comprehensive documentation that includes:",
		Focus: []string{
			"Purpose and context",
			"Architecture and design decisions",
			"Implementation details with code examples",
			"API references or interfaces",
			"Dependencies and relationships",
		},
		Access: []string{
			l.codebase() + ": Read and analyze relevant code files",
			l.KnowledgeBase + " MCP server: Use this to create the new documentation page",
		},
		Tasks: steps(
			"Explore and analyze the relevant code in the codebase",
			"Structure and write the technical documentation",
			"Include code snippets and examples where helpful",
			"Use the "+l.KnowledgeBase+" MCP server to create the new page in "+l.KnowledgeBase,
		),
	}
}

func (technicalDocs) reviewVerification(providerLabels) string {
	return "Review the codebase to verify the documentation matches the implementation"
}
