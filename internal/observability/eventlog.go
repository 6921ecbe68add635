package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Event represents a single observable event, such as a dispatch or a page
// registration.
type Event struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"` // INFO, WARN, ERROR
	Type    string         `json:"type"`  // one of the Event* constants
	Message string         `json:"msg"`
	Data    map[string]any `json:"data,omitempty"`
}

// Event types recorded by docup.
const (
	EventDocDispatched  = "doc.dispatched"
	EventDocFailed      = "doc.failed"
	EventPageRegistered = "page.registered"
	EventPageRemoved    = "page.removed"
)

// EventFilter specifies criteria for reading events.
type EventFilter struct {
	Since *time.Time
	Type  string
	Level string
}

// EventLog writes and reads events.
type EventLog interface {
	Write(event Event) error
	// LogEvent writes an event of the given type stamped with the current
	// time. Types ending in ".failed" are logged at ERROR level.
	LogEvent(eventType string, data map[string]any) error
	Read(filter EventFilter) ([]Event, error)
	Close() error
}

// jsonlEventLog implements EventLog using an append-only JSONL file. The
// file and its directory are created by the first Write, so commands that
// never record an event leave nothing on disk.
type jsonlEventLog struct {
	path   string
	file   *os.File
	closed bool
	mu     sync.Mutex
	now    func() time.Time
}

// NewJSONLEventLog returns an event log backed by the JSONL file at path.
func NewJSONLEventLog(path string) (EventLog, error) {
	if path == "" {
		return nil, fmt.Errorf("event log path must not be empty")
	}
	return &jsonlEventLog{
		path: path,
		now:  time.Now,
	}, nil
}

func (l *jsonlEventLog) openLocked() error {
	if l.closed {
		return fmt.Errorf("event log %s is closed", l.path)
	}
	if l.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating event log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	l.file = f
	return nil
}

// Write appends a JSON-encoded event followed by a newline to the log file.
func (l *jsonlEventLog) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	if err := l.openLocked(); err != nil {
		return err
	}
	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

func (l *jsonlEventLog) LogEvent(eventType string, data map[string]any) error {
	level := "INFO"
	if strings.HasSuffix(eventType, ".failed") {
		level = "ERROR"
	}
	return l.Write(Event{
		Time:    l.now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: eventMessage(eventType, data),
		Data:    data,
	})
}

func eventMessage(eventType string, data map[string]any) string {
	doc, _ := data["doc"].(string)
	switch eventType {
	case EventDocDispatched:
		return fmt.Sprintf("%v %s dispatched", data["action"], doc)
	case EventDocFailed:
		return fmt.Sprintf("%v %s failed", data["action"], doc)
	case EventPageRegistered:
		return fmt.Sprintf("page %v registered", data["name"])
	case EventPageRemoved:
		return fmt.Sprintf("page %v removed", data["name"])
	}
	return eventType
}

// Read scans the log file and returns the events matching filter. Malformed
// lines are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		if matchesEventFilter(event, filter) {
			events = append(events, event)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}

	return events, nil
}

// Close closes the log file if a Write opened it.
func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

func matchesEventFilter(event Event, filter EventFilter) bool {
	if filter.Since != nil && event.Time.Before(*filter.Since) {
		return false
	}
	if filter.Type != "" && event.Type != filter.Type {
		return false
	}
	if filter.Level != "" && event.Level != filter.Level {
		return false
	}
	return true
}
