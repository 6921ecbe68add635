package core

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/docup/pkg/models"
)

// Dispatcher performs exactly one model call, granting the providers in caps.
// Implementations return a *DispatchError on transport or auth failures and
// never retry.
type Dispatcher interface {
	Dispatch(ctx context.Context, caps models.CapabilitySet, prompt string) (*models.ModelResult, error)
}

// PageResolver looks up a page ID by document name.
type PageResolver interface {
	ResolvePageID(name string) (string, bool)
}

// EventLogger is the subset of the observability event log the orchestrator
// needs. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Plan is everything decided before dispatch: the providers to grant and the
// prompt to send.
type Plan struct {
	Request      models.TaskRequest
	Capabilities models.CapabilitySet
	// Grants is what the dispatcher receives: Capabilities plus
	// CapabilityCodebaseAccess for types checked against the source tree.
	// Backends that cannot read local files ignore the extra entry.
	Grants models.CapabilitySet
	Prompt models.Prompt
}

// Orchestrator turns a TaskRequest into a single dispatch.
type Orchestrator struct {
	builder    *PromptBuilder
	pages      PageResolver
	dispatcher Dispatcher
	events     EventLogger
	log        logrus.FieldLogger
}

// NewOrchestrator wires an Orchestrator. events may be nil when the event log
// is disabled; log may be nil to discard log output.
func NewOrchestrator(builder *PromptBuilder, pages PageResolver, dispatcher Dispatcher, events EventLogger, log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Orchestrator{
		builder:    builder,
		pages:      pages,
		dispatcher: dispatcher,
		events:     events,
		log:        log,
	}
}

// Prepare resolves the page ID, selects capabilities and builds the prompt
// without dispatching anything.
func (o *Orchestrator) Prepare(req models.TaskRequest) (*Plan, error) {
	kind, err := kindOf(req.DocType)
	if err != nil {
		return nil, err
	}
	caps := kind.capabilities()
	grants := append(models.CapabilitySet{}, caps...)
	if kind.readsCodebase() {
		grants = append(grants, models.CapabilityCodebaseAccess)
	}

	if req.Action.ResolvesPageID() && req.Identity.PageID == "" && o.pages != nil {
		if id, ok := o.pages.ResolvePageID(req.Identity.Name); ok {
			req.Identity.PageID = id
		}
	}

	var prompt models.Prompt
	switch req.Action {
	case models.ActionUpdate:
		// An unresolved page ID is allowed here: the prompt omits the
		// location hint and the model searches for the page itself.
		prompt, err = o.builder.BuildUpdate(req.Identity, req.DocType, req.Instructions, req.PriorContent)
	case models.ActionCreate:
		prompt, err = o.builder.BuildCreate(req.Identity, req.DocType, req.Instructions, req.ParentID)
	case models.ActionReview:
		if req.Identity.PageID == "" {
			return nil, fmt.Errorf("%w: no page ID found for %q, pass --page-id or register the page", ErrMissingTarget, req.Identity.Name)
		}
		prompt, err = o.builder.BuildReview(req.Identity, req.DocType)
	default:
		return nil, fmt.Errorf("%w: action %q must be one of %v", ErrInvalidConfiguration, req.Action, models.Actions)
	}
	if err != nil {
		return nil, err
	}

	return &Plan{Request: req, Capabilities: caps, Grants: grants, Prompt: prompt}, nil
}

// Run prepares the request and dispatches it once. Errors are returned
// unmodified; nothing is retried.
func (o *Orchestrator) Run(ctx context.Context, req models.TaskRequest) (*models.ModelResult, error) {
	plan, err := o.Prepare(req)
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"action":    plan.Request.Action,
		"doc":       plan.Request.Identity.Name,
		"doc_type":  plan.Request.DocType,
		"providers": plan.Capabilities.String(),
	}
	if plan.Request.Identity.PageID != "" {
		fields["page_id"] = plan.Request.Identity.PageID
	}
	if plan.Request.ParentID != "" {
		fields["parent_id"] = plan.Request.ParentID
	}
	o.log.WithFields(fields).Infof("%s %s documentation: %s", verb(plan.Request.Action), plan.Request.DocType, plan.Request.Identity.Name)

	result, err := o.dispatcher.Dispatch(ctx, plan.Grants, plan.Prompt.String())
	if err != nil {
		o.log.WithFields(fields).WithError(err).Error("dispatch failed")
		o.logEvent("doc.failed", eventData(plan, map[string]any{"error": err.Error()}))
		return nil, err
	}

	o.log.WithFields(fields).WithFields(logrus.Fields{
		"stop_reason":   result.StopReason,
		"input_tokens":  result.Usage.InputTokens,
		"output_tokens": result.Usage.OutputTokens,
	}).Debug("dispatch complete")
	o.logEvent("doc.dispatched", eventData(plan, map[string]any{
		"stop_reason":   result.StopReason,
		"input_tokens":  result.Usage.InputTokens,
		"output_tokens": result.Usage.OutputTokens,
	}))

	return result, nil
}

// Update updates an existing page.
func (o *Orchestrator) Update(ctx context.Context, identity models.DocumentIdentity, docType models.DocType, instructions string) (*models.ModelResult, error) {
	return o.Run(ctx, models.TaskRequest{
		Identity:     identity,
		DocType:      docType,
		Action:       models.ActionUpdate,
		Instructions: instructions,
	})
}

// Create creates a new page, optionally under parentID.
func (o *Orchestrator) Create(ctx context.Context, name string, docType models.DocType, instructions, parentID string) (*models.ModelResult, error) {
	return o.Run(ctx, models.TaskRequest{
		Identity:     models.DocumentIdentity{Name: name},
		DocType:      docType,
		Action:       models.ActionCreate,
		Instructions: instructions,
		ParentID:     parentID,
	})
}

// Review reviews a page without changing it.
func (o *Orchestrator) Review(ctx context.Context, identity models.DocumentIdentity, docType models.DocType) (*models.ModelResult, error) {
	return o.Run(ctx, models.TaskRequest{
		Identity: identity,
		DocType:  docType,
		Action:   models.ActionReview,
	})
}

func (o *Orchestrator) logEvent(eventType string, data map[string]any) {
	if o.events == nil {
		return
	}
	if err := o.events.LogEvent(eventType, data); err != nil {
		o.log.WithError(err).Warn("writing event log")
	}
}

func eventData(plan *Plan, extra map[string]any) map[string]any {
	data := map[string]any{
		"action":    string(plan.Request.Action),
		"doc":       plan.Request.Identity.Name,
		"doc_type":  string(plan.Request.DocType),
		"providers": plan.Capabilities.Names(),
	}
	if plan.Request.Identity.PageID != "" {
		data["page_id"] = plan.Request.Identity.PageID
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func verb(a models.Action) string {
	switch a {
	case models.ActionUpdate:
		return "Updating"
	case models.ActionCreate:
		return "Creating"
	case models.ActionReview:
		return "Reviewing"
	}
	return string(a)
}
