package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// For any mix of dispatched and failed events, the calculator reports counts
// and token totals that match what was written.
func TestProperty_MetricsMatchWrittenEvents(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		n := rapid.IntRange(0, 25).Draw(rt, "n")
		base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
		actions := []string{"update", "create", "review"}

		var wantDispatched, wantFailed, wantIn, wantOut int
		for i := 0; i < n; i++ {
			failed := rapid.Bool().Draw(rt, fmt.Sprintf("failed_%d", i))
			action := rapid.SampledFrom(actions).Draw(rt, fmt.Sprintf("action_%d", i))
			data := map[string]any{"doc": "guide", "action": action, "doc_type": "user"}
			eventType := "doc.failed"
			if !failed {
				eventType = "doc.dispatched"
				in := rapid.IntRange(0, 10000).Draw(rt, fmt.Sprintf("in_%d", i))
				out := rapid.IntRange(0, 10000).Draw(rt, fmt.Sprintf("out_%d", i))
				data["input_tokens"] = in
				data["output_tokens"] = out
				wantDispatched++
				wantIn += in
				wantOut += out
			} else {
				wantFailed++
			}
			e := Event{Time: base.Add(time.Duration(i) * time.Second), Type: eventType, Data: data}
			if err := el.Write(e); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		m, err := NewMetricsCalculator(el).Calculate(base)
		if err != nil {
			t.Fatalf("calculating metrics: %v", err)
		}
		if m.Dispatches != wantDispatched {
			rt.Errorf("Dispatches = %d, want %d", m.Dispatches, wantDispatched)
		}
		if m.Failures != wantFailed {
			rt.Errorf("Failures = %d, want %d", m.Failures, wantFailed)
		}
		if m.InputTokens != wantIn || m.OutputTokens != wantOut {
			rt.Errorf("tokens = %d/%d, want %d/%d", m.InputTokens, m.OutputTokens, wantIn, wantOut)
		}
		if m.EventCount != n {
			rt.Errorf("EventCount = %d, want %d", m.EventCount, n)
		}
		total := 0
		for _, c := range m.ByAction {
			total += c
		}
		if total != wantDispatched {
			rt.Errorf("sum of ByAction = %d, want %d", total, wantDispatched)
		}
	})
}
