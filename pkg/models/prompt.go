package models

import (
	"fmt"
	"strings"
)

// PriorContentLabel introduces the caller-supplied snapshot of a page.
const PriorContentLabel = "Current Documentation Content:"

// PriorContentDelimiter fences the snapshot on both sides.
const PriorContentDelimiter = "---"

// HeaderLine is a single "Label: value" line in the prompt context header.
type HeaderLine struct {
	Label string
	Value string
}

// PromptTask is one numbered step of the task checklist. Details render as an
// indented bullet list under the step.
type PromptTask struct {
	Step    string
	Details []string
}

// Prompt is the instruction payload sent to the model, kept as separate
// sections until String flattens it at the dispatch boundary.
type Prompt struct {
	Action  Action
	DocType DocType

	Role         string
	Header       []HeaderLine
	Instructions string
	PriorContent string

	Brief  string
	Focus  []string
	Access []string
	Tasks  []PromptTask

	// Location directs the model to a concrete page before it acts.
	Location string
	// Constraint is a hard rule appended last, e.g. the read-only rule of a
	// review.
	Constraint string
}

// HeaderValue returns the value of the header line with the given label.
func (p Prompt) HeaderValue(label string) (string, bool) {
	for _, h := range p.Header {
		if h.Label == label {
			return h.Value, true
		}
	}
	return "", false
}

// String flattens the prompt into the text sent to the model. Empty
// sections are omitted entirely.
func (p Prompt) String() string {
	var sections []string

	if p.Role != "" {
		sections = append(sections, p.Role)
	}

	if len(p.Header) > 0 {
		lines := make([]string, len(p.Header))
		for i, h := range p.Header {
			lines[i] = h.Label + ": " + h.Value
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if p.Instructions != "" {
		sections = append(sections, "User Instructions: "+p.Instructions)
	}

	if p.PriorContent != "" {
		sections = append(sections, strings.Join([]string{
			PriorContentLabel,
			PriorContentDelimiter,
			p.PriorContent,
			PriorContentDelimiter,
		}, "\n"))
	}

	if p.Brief != "" || len(p.Focus) > 0 {
		sections = append(sections, bulleted(p.Brief, p.Focus))
	}

	if len(p.Access) > 0 {
		sections = append(sections, bulleted("You have access to:", p.Access))
	}

	if len(p.Tasks) > 0 {
		var b strings.Builder
		b.WriteString("Tasks:")
		for i, t := range p.Tasks {
			fmt.Fprintf(&b, "\n%d. %s", i+1, t.Step)
			for _, d := range t.Details {
				b.WriteString("\n   - " + d)
			}
		}
		sections = append(sections, b.String())
	}

	if p.Location != "" {
		sections = append(sections, p.Location)
	}

	if p.Constraint != "" {
		sections = append(sections, p.Constraint)
	}

	return strings.Join(sections, "\n\n") + "\n"
}

func bulleted(title string, items []string) string {
	lines := make([]string, 0, len(items)+1)
	if title != "" {
		lines = append(lines, title)
	}
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}
