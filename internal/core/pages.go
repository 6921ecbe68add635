package core

import (
	"fmt"
	"strings"
)

// PageRegistry is the write side of the page store.
type PageRegistry interface {
	RegisterPageID(name, pageID string) error
	RemovePage(name string) error
}

// RegisterPage records name -> pageID in the registry and writes a
// page.registered event. events may be nil.
func RegisterPage(pages PageRegistry, events EventLogger, name, pageID string) error {
	name = strings.TrimSpace(name)
	pageID = strings.TrimSpace(pageID)
	if name == "" || pageID == "" {
		return fmt.Errorf("%w: page name and page ID are required", ErrMissingInput)
	}
	if err := pages.RegisterPageID(name, pageID); err != nil {
		return fmt.Errorf("registering page %s: %w", name, err)
	}
	if events != nil {
		_ = events.LogEvent("page.registered", map[string]any{"name": name, "page_id": pageID})
	}
	return nil
}

// UnregisterPage removes name from the registry and writes a page.removed
// event. events may be nil.
func UnregisterPage(pages PageRegistry, events EventLogger, name string) error {
	if err := pages.RemovePage(name); err != nil {
		return fmt.Errorf("removing page %s: %w", name, err)
	}
	if events != nil {
		_ = events.LogEvent("page.removed", map[string]any{"name": name})
	}
	return nil
}
