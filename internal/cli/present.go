package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/docup/pkg/models"
)

const ruleWidth = 80

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	toolStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	healthyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	unhealthyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

// PrintResult renders a model result for a terminal: text blocks verbatim,
// tool invocations as a [Tool: name] line followed by their indented JSON
// arguments, then the token usage.
func PrintResult(w io.Writer, res *models.ModelResult) error {
	rule := dimStyle.Render(strings.Repeat("=", ruleWidth))

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, titleStyle.Render("MODEL RESPONSE"))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	for _, block := range res.Content {
		switch block.Type {
		case models.BlockText:
			fmt.Fprintln(w, block.Text)
		case models.BlockToolUse:
			input := block.Input
			if input == nil {
				input = map[string]any{}
			}
			args, err := json.MarshalIndent(input, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting arguments of tool %s: %w", block.Name, err)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, toolStyle.Render(fmt.Sprintf("[Tool: %s]", block.Name)))
			fmt.Fprintln(w, string(args))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Usage: %d in, %d out\n", res.Usage.InputTokens, res.Usage.OutputTokens)
	fmt.Fprintln(w, rule)
	return nil
}

// PrintResultJSON writes the raw result envelope as indented JSON.
func PrintResultJSON(w io.Writer, res *models.ModelResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting result as JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printPlan renders what a dry run would dispatch.
func printPlan(w io.Writer, caps models.CapabilitySet, prompt string) {
	fmt.Fprintln(w, titleStyle.Render("Providers:")+" "+caps.String())
	fmt.Fprintln(w)
	fmt.Fprint(w, prompt)
}
