package observability

import (
	"fmt"
	"time"
)

// Metrics holds dispatch statistics derived from the event log.
type Metrics struct {
	Dispatches       int            `json:"dispatches"`
	Failures         int            `json:"failures"`
	ByAction         map[string]int `json:"by_action"`
	ByDocType        map[string]int `json:"by_doc_type"`
	InputTokens      int            `json:"input_tokens"`
	OutputTokens     int            `json:"output_tokens"`
	PagesRegistered  int            `json:"pages_registered"`
	EventCount       int            `json:"event_count"`
	OldestEvent      *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent      *time.Time     `json:"newest_event,omitempty"`
	RecentDispatches []Event        `json:"recent_dispatches,omitempty"`
}

// maxRecent bounds Metrics.RecentDispatches.
const maxRecent = 10

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates all events since the given time.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		ByAction:  make(map[string]int),
		ByDocType: make(map[string]int),
	}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case EventDocDispatched:
			m.Dispatches++
			if action, ok := event.Data["action"].(string); ok {
				m.ByAction[action]++
			}
			if docType, ok := event.Data["doc_type"].(string); ok {
				m.ByDocType[docType]++
			}
			// JSON numbers decode as float64.
			if n, ok := event.Data["input_tokens"].(float64); ok {
				m.InputTokens += int(n)
			}
			if n, ok := event.Data["output_tokens"].(float64); ok {
				m.OutputTokens += int(n)
			}
			m.RecentDispatches = append(m.RecentDispatches, event)
			if len(m.RecentDispatches) > maxRecent {
				m.RecentDispatches = m.RecentDispatches[1:]
			}
		case EventDocFailed:
			m.Failures++
		case EventPageRegistered:
			m.PagesRegistered++
		}
	}

	return m, nil
}
