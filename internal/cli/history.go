package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyJSON  bool
	historySince string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Summarize recent documentation requests",
	Long: `Summarize the requests recorded in the event log: dispatches by action
and documentation type, failures, token usage and the most recent requests.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("event log not available")
		}

		sinceTime, err := parseSinceDuration(historySince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating history: %w", err)
		}

		out := cmd.OutOrStdout()
		if historyJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting history as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("History (since %s)", sinceTime.Format("2006-01-02"))))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(out, "  %-24s %d\n", "Requests dispatched:", metrics.Dispatches)
		fmt.Fprintf(out, "  %-24s %d\n", "Requests failed:", metrics.Failures)
		fmt.Fprintf(out, "  %-24s %d\n", "Pages registered:", metrics.PagesRegistered)
		fmt.Fprintf(out, "  %-24s %d in, %d out\n", "Tokens:", metrics.InputTokens, metrics.OutputTokens)

		printCounts(cmd, "By action:", metrics.ByAction)
		printCounts(cmd, "By documentation type:", metrics.ByDocType)

		if len(metrics.RecentDispatches) > 0 {
			fmt.Fprintln(out, "\n  Recent:")
			for i := len(metrics.RecentDispatches) - 1; i >= 0; i-- {
				e := metrics.RecentDispatches[i]
				fmt.Fprintf(out, "    %s  %s\n", e.Time.Local().Format("2006-01-02 15:04"), e.Message)
			}
		}
		return nil
	},
}

func printCounts(cmd *cobra.Command, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n  %s\n", title)
	for _, k := range keys {
		fmt.Fprintf(out, "    %-20s %d\n", k+":", counts[k])
	}
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output history as JSON")
	historyCmd.Flags().StringVar(&historySince, "since", "7d", "Time window (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(historyCmd)
}
