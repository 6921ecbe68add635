package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/valter-silva-au/docup/pkg/models"
	"pgregory.net/rapid"
)

// --- Fakes ---

type fakeDispatcher struct {
	mu      sync.Mutex
	calls   int
	caps    models.CapabilitySet
	prompt  string
	result  *models.ModelResult
	failErr error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, caps models.CapabilitySet, prompt string) (*models.ModelResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.caps = caps
	f.prompt = prompt
	if f.failErr != nil {
		return nil, f.failErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &models.ModelResult{
		Content:    []models.ContentBlock{models.TextBlock("ok")},
		StopReason: "end_turn",
		Usage:      models.Usage{InputTokens: 10, OutputTokens: 2},
	}, nil
}

type mapResolver map[string]string

func (m mapResolver) ResolvePageID(name string) (string, bool) {
	id, ok := m[name]
	return id, ok
}

type recordedEvent struct {
	eventType string
	data      map[string]any
}

type fakeEvents struct {
	events []recordedEvent
}

func (f *fakeEvents) LogEvent(eventType string, data map[string]any) error {
	f.events = append(f.events, recordedEvent{eventType, data})
	return nil
}

func newTestOrchestrator(pages mapResolver) (*Orchestrator, *fakeDispatcher, *fakeEvents) {
	d := &fakeDispatcher{}
	ev := &fakeEvents{}
	return NewOrchestrator(NewPromptBuilder(nil), pages, d, ev, nil), d, ev
}

// --- Tests ---

func TestOrchestrator_UpdateResolvesRegisteredPage(t *testing.T) {
	o, d, ev := newTestOrchestrator(mapResolver{"auth-guide": "abc123"})

	res, err := o.Update(context.Background(), models.DocumentIdentity{Name: "auth-guide"}, models.DocTypeUser, "Update OAuth section")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.Text() != "ok" {
		t.Errorf("result text = %q", res.Text())
	}

	if d.calls != 1 {
		t.Fatalf("expected exactly 1 dispatch, got %d", d.calls)
	}
	want := models.CapabilitySet{models.CapabilityKnowledgeBase, models.CapabilityBrowserAutomation}
	if d.caps.String() != want.String() {
		t.Errorf("capabilities = %v, want %v", d.caps, want)
	}
	if !strings.Contains(d.prompt, "abc123") {
		t.Errorf("prompt missing page ID:\n%s", d.prompt)
	}
	if !strings.Contains(d.prompt, "Update OAuth section") {
		t.Errorf("prompt missing instructions:\n%s", d.prompt)
	}

	if len(ev.events) != 1 || ev.events[0].eventType != "doc.dispatched" {
		t.Fatalf("events = %+v, want one doc.dispatched", ev.events)
	}
	data := ev.events[0].data
	if data["page_id"] != "abc123" || data["action"] != "update" || data["input_tokens"] != 10 {
		t.Errorf("event data = %v", data)
	}
}

func TestOrchestrator_ExplicitPageIDWins(t *testing.T) {
	o, d, _ := newTestOrchestrator(mapResolver{"auth-guide": "abc123"})

	_, err := o.Update(context.Background(), models.DocumentIdentity{Name: "auth-guide", PageID: "zzz999"}, models.DocTypeUser, "x")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !strings.Contains(d.prompt, "zzz999") || strings.Contains(d.prompt, "abc123") {
		t.Errorf("explicit page ID should override the registry:\n%s", d.prompt)
	}
}

func TestOrchestrator_UpdateWithoutPageIDProceeds(t *testing.T) {
	o, d, _ := newTestOrchestrator(mapResolver{})

	if _, err := o.Update(context.Background(), models.DocumentIdentity{Name: "auth-guide"}, models.DocTypeUser, "x"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if d.calls != 1 {
		t.Fatalf("expected 1 dispatch, got %d", d.calls)
	}
	if strings.Contains(d.prompt, "page ID:") {
		t.Errorf("unresolved update must not carry a location hint:\n%s", d.prompt)
	}
}

func TestOrchestrator_ReviewMissingTarget(t *testing.T) {
	o, d, ev := newTestOrchestrator(mapResolver{})

	_, err := o.Review(context.Background(), models.DocumentIdentity{Name: "auth-guide"}, models.DocTypeUser)
	if !errors.Is(err, ErrMissingTarget) {
		t.Fatalf("Review error = %v, want ErrMissingTarget", err)
	}
	if d.calls != 0 {
		t.Errorf("dispatcher observed %d calls, want 0", d.calls)
	}
	if len(ev.events) != 0 {
		t.Errorf("no event should be written for a rejected request, got %+v", ev.events)
	}
}

func TestOrchestrator_ReviewResolvesRegisteredPage(t *testing.T) {
	o, d, _ := newTestOrchestrator(mapResolver{"api-reference": "def456"})

	if _, err := o.Review(context.Background(), models.DocumentIdentity{Name: "api-reference"}, models.DocTypeTechnical); err != nil {
		t.Fatalf("Review: %v", err)
	}
	if !strings.Contains(d.prompt, "def456") || !strings.Contains(d.prompt, ReviewReadOnlyConstraint) {
		t.Errorf("unexpected review prompt:\n%s", d.prompt)
	}
}

func TestOrchestrator_CreateTechnicalWithoutParent(t *testing.T) {
	o, d, _ := newTestOrchestrator(mapResolver{"deployment-guide": "should-not-be-used"})

	if _, err := o.Create(context.Background(), "deployment-guide", models.DocTypeTechnical, "Explain deployment", ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	wantGrants := models.CapabilitySet{models.CapabilityKnowledgeBase, models.CapabilityCodebaseAccess}
	if d.caps.String() != wantGrants.String() {
		t.Errorf("dispatched grants = %v, want %v", d.caps, wantGrants)
	}
	if strings.Contains(d.prompt, HeaderParentPageID) || strings.Contains(d.prompt, "parent page ID") {
		t.Errorf("prompt should carry no parent line:\n%s", d.prompt)
	}
	if strings.Contains(d.prompt, "should-not-be-used") {
		t.Errorf("create must not resolve a page ID:\n%s", d.prompt)
	}
}

func TestOrchestrator_ValidationErrorsDoNotDispatch(t *testing.T) {
	tests := []struct {
		name string
		req  models.TaskRequest
		want error
	}{
		{
			name: "invalid doc type",
			req:  models.TaskRequest{Identity: models.DocumentIdentity{Name: "a"}, DocType: "marketing", Action: models.ActionUpdate, Instructions: "x"},
			want: ErrInvalidConfiguration,
		},
		{
			name: "invalid action",
			req:  models.TaskRequest{Identity: models.DocumentIdentity{Name: "a"}, DocType: models.DocTypeUser, Action: "delete"},
			want: ErrInvalidConfiguration,
		},
		{
			name: "update without instructions",
			req:  models.TaskRequest{Identity: models.DocumentIdentity{Name: "a"}, DocType: models.DocTypeUser, Action: models.ActionUpdate},
			want: ErrMissingInput,
		},
		{
			name: "create without instructions",
			req:  models.TaskRequest{Identity: models.DocumentIdentity{Name: "a"}, DocType: models.DocTypeTechnical, Action: models.ActionCreate, Instructions: "  "},
			want: ErrMissingInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, d, _ := newTestOrchestrator(mapResolver{})
			_, err := o.Run(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Run error = %v, want %v", err, tt.want)
			}
			if d.calls != 0 {
				t.Errorf("dispatcher observed %d calls, want 0", d.calls)
			}
		})
	}
}

func TestOrchestrator_DispatchErrorPropagatesUnmodified(t *testing.T) {
	o, d, ev := newTestOrchestrator(mapResolver{})
	cause := &DispatchError{Backend: "api", Err: errors.New("401 unauthorized")}
	d.failErr = cause

	_, err := o.Update(context.Background(), models.DocumentIdentity{Name: "a"}, models.DocTypeUser, "x")
	if err != cause {
		t.Fatalf("Run error = %v, want the dispatcher's error unchanged", err)
	}
	if !errors.Is(err, ErrDispatch) {
		t.Error("dispatch error should match ErrDispatch")
	}
	if d.calls != 1 {
		t.Errorf("expected 1 dispatch (no retry), got %d", d.calls)
	}
	if len(ev.events) != 1 || ev.events[0].eventType != "doc.failed" {
		t.Errorf("events = %+v, want one doc.failed", ev.events)
	}
}

func TestOrchestrator_Prepare(t *testing.T) {
	o, d, _ := newTestOrchestrator(mapResolver{"auth-guide": "abc123"})

	plan, err := o.Prepare(models.TaskRequest{
		Identity:     models.DocumentIdentity{Name: "auth-guide"},
		DocType:      models.DocTypeUser,
		Action:       models.ActionUpdate,
		Instructions: "x",
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if plan.Request.Identity.PageID != "abc123" {
		t.Errorf("plan page ID = %q, want abc123", plan.Request.Identity.PageID)
	}
	if plan.Prompt.Action != models.ActionUpdate {
		t.Errorf("plan prompt action = %q", plan.Prompt.Action)
	}
	if d.calls != 0 {
		t.Errorf("Prepare must not dispatch, got %d calls", d.calls)
	}
}

func TestOrchestrator_NilEventsAndResolver(t *testing.T) {
	d := &fakeDispatcher{}
	o := NewOrchestrator(NewPromptBuilder(nil), nil, d, nil, nil)

	if _, err := o.Update(context.Background(), models.DocumentIdentity{Name: "a"}, models.DocTypeUser, "x"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := o.Review(context.Background(), models.DocumentIdentity{Name: "a"}, models.DocTypeUser); !errors.Is(err, ErrMissingTarget) {
		t.Errorf("Review error = %v, want ErrMissingTarget", err)
	}
}

// A review with an empty registry and no explicit page ID never dispatches.
func TestProperty_ReviewWithoutTargetNeverDispatches(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		o, d, _ := newTestOrchestrator(mapResolver{})
		docType := rapid.SampledFrom(models.DocTypes).Draw(rt, "docType")
		name := rapid.StringMatching(`[a-z][a-z0-9-]{0,20}`).Draw(rt, "name")

		_, err := o.Review(context.Background(), models.DocumentIdentity{Name: name}, docType)
		if !errors.Is(err, ErrMissingTarget) {
			rt.Errorf("Review(%q) error = %v, want ErrMissingTarget", name, err)
		}
		if d.calls != 0 {
			rt.Errorf("dispatcher observed %d calls", d.calls)
		}
	})
}

func TestOrchestrator_PrepareGrantsCodebaseOnlyToTechnicalDocs(t *testing.T) {
	o, _, _ := newTestOrchestrator(nil)

	tests := []struct {
		docType    models.DocType
		wantCaps   models.CapabilitySet
		wantGrants models.CapabilitySet
	}{
		{
			docType:    models.DocTypeUser,
			wantCaps:   models.CapabilitySet{models.CapabilityKnowledgeBase, models.CapabilityBrowserAutomation},
			wantGrants: models.CapabilitySet{models.CapabilityKnowledgeBase, models.CapabilityBrowserAutomation},
		},
		{
			docType:    models.DocTypeTechnical,
			wantCaps:   models.CapabilitySet{models.CapabilityKnowledgeBase},
			wantGrants: models.CapabilitySet{models.CapabilityKnowledgeBase, models.CapabilityCodebaseAccess},
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.docType), func(t *testing.T) {
			plan, err := o.Prepare(models.TaskRequest{
				Action:       models.ActionCreate,
				Identity:     models.DocumentIdentity{Name: "guide"},
				DocType:      tt.docType,
				Instructions: "Write it",
			})
			if err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			if plan.Capabilities.String() != tt.wantCaps.String() {
				t.Errorf("Capabilities = %v, want %v", plan.Capabilities, tt.wantCaps)
			}
			if plan.Grants.String() != tt.wantGrants.String() {
				t.Errorf("Grants = %v, want %v", plan.Grants, tt.wantGrants)
			}
		})
	}
}
