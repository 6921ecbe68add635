package models

import "strings"

// DocType classifies the audience of a documentation page.
type DocType string

const (
	DocTypeUser      DocType = "user"
	DocTypeTechnical DocType = "technical"
)

// DocTypes lists every supported documentation type in display order.
var DocTypes = []DocType{DocTypeUser, DocTypeTechnical}

// Action is the operation requested against a documentation page.
type Action string

const (
	ActionUpdate Action = "update"
	ActionCreate Action = "create"
	ActionReview Action = "review"
)

// Actions lists every supported action in display order.
var Actions = []Action{ActionUpdate, ActionCreate, ActionReview}

// RequiresInstructions reports whether the action needs caller instructions.
func (a Action) RequiresInstructions() bool {
	return a == ActionUpdate || a == ActionCreate
}

// ResolvesPageID reports whether the action looks up a page ID by document
// name when none was supplied.
func (a Action) ResolvesPageID() bool {
	return a == ActionUpdate || a == ActionReview
}

// DocumentIdentity names a documentation page. Name is the stable lookup key;
// PageID is the knowledge-base address and is empty when unresolved.
type DocumentIdentity struct {
	Name   string `json:"name" yaml:"name"`
	PageID string `json:"page_id,omitempty" yaml:"page_id,omitempty"`
}

// TaskRequest carries everything the orchestrator needs for one request.
type TaskRequest struct {
	Identity     DocumentIdentity
	DocType      DocType
	Action       Action
	Instructions string
	ParentID     string
	// PriorContent is an optional snapshot of the page supplied by the caller.
	// It is normally empty: the model reads the live page itself.
	PriorContent string
}

// Capability is an external tool integration the model may use during a
// request.
type Capability string

const (
	CapabilityKnowledgeBase     Capability = "knowledge_base"
	CapabilityBrowserAutomation Capability = "browser_automation"
	// CapabilityCodebaseAccess is granted by context (the working directory),
	// never as a remote provider.
	CapabilityCodebaseAccess Capability = "codebase_access"
)

// CapabilitySet is an ordered set of capabilities.
type CapabilitySet []Capability

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	for _, existing := range s {
		if existing == c {
			return true
		}
	}
	return false
}

// Names returns the capability names in order.
func (s CapabilitySet) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = string(c)
	}
	return names
}

func (s CapabilitySet) String() string {
	return strings.Join(s.Names(), ", ")
}
