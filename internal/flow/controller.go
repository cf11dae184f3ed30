package flow

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/safehost/go-provider/internal/events"
	"github/safehost/go-provider/internal/metrics"
)

// Host mounts confirmation flows and lets a human settle them. At most one
// flow is live at a time: opening a new flow closes (and thereby rejects) the
// previous one, so no pending request is ever orphaned.
type Host interface {
	// Open mounts a flow, dismissing any currently live one first.
	Open(f *PendingFlow)

	// List returns the currently live flows, newest first.
	List() []*PendingFlow

	// Confirm completes the flow with the given outcome.
	Confirm(ctx context.Context, id string, outcome ConfirmOutcome) error

	// Reject dismisses the flow without completing it.
	Reject(ctx context.Context, id string) error

	// Clear unmounts a flow that has settled through another path.
	Clear(id string)
}

// Controller is the in-process flow host. The browser rendition mounts modal
// dialogs; here flows are held until a management API call settles them.
type Controller struct {
	mu      sync.Mutex
	active  *PendingFlow
	bus     *events.Bus
	metrics *metrics.Service
}

// NewController creates an empty flow controller.
func NewController(bus *events.Bus, m *metrics.Service) *Controller {
	return &Controller{bus: bus, metrics: m}
}

// Open mounts the flow. A previously live flow is closed first, which fires
// its registered close callback and rejects its pending request.
func (c *Controller) Open(f *PendingFlow) {
	c.mu.Lock()
	previous := c.active
	c.active = f
	c.mu.Unlock()

	if previous != nil {
		log.Debug().
			Str("flow_id", previous.ID).
			Str("replaced_by", f.ID).
			Msg("Closing outstanding flow, replaced by a new request")
		c.close(previous)
	}

	c.metrics.FlowsOpened.WithLabelValues(string(f.Kind)).Inc()

	log.Info().
		Str("flow_id", f.ID).
		Str("kind", string(f.Kind)).
		Str("app", f.App.Name).
		Msg("Confirmation flow opened")
}

// List returns the currently live flows.
func (c *Controller) List() []*PendingFlow {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil {
		return []*PendingFlow{}
	}

	return []*PendingFlow{c.active}
}

// Confirm completes the live flow with the given outcome.
func (c *Controller) Confirm(ctx context.Context, id string, outcome ConfirmOutcome) error {
	c.mu.Lock()
	f := c.active
	if f == nil || f.ID != id {
		c.mu.Unlock()
		return errors.Errorf("no pending flow with id %s", id)
	}
	c.mu.Unlock()

	if f.onConfirm == nil {
		return errors.Errorf("flow %s cannot be confirmed", id)
	}

	// The flow stays mounted until the outcome is accepted. A rejected
	// outcome leaves it live, so the caller can retry the confirm or reject
	// it and the pending request is never orphaned.
	if err := f.onConfirm(ctx, outcome); err != nil {
		return errors.Wrap(err, "failed to confirm flow")
	}

	c.mu.Lock()
	if c.active == f {
		c.active = nil
	}
	c.mu.Unlock()

	c.metrics.FlowsSettled.WithLabelValues(string(f.Kind), "confirmed").Inc()

	return nil
}

// Reject dismisses the live flow, rejecting its pending request.
func (c *Controller) Reject(_ context.Context, id string) error {
	c.mu.Lock()
	f := c.active
	if f == nil || f.ID != id {
		c.mu.Unlock()
		return errors.Errorf("no pending flow with id %s", id)
	}
	c.active = nil
	c.mu.Unlock()

	c.close(f)
	c.metrics.FlowsSettled.WithLabelValues(string(f.Kind), "rejected").Inc()

	return nil
}

// Clear unmounts the flow with the given id without firing its close
// callback. Called when the flow has already settled through an event.
func (c *Controller) Clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && c.active.ID == id {
		c.active = nil
	}
}

// close fires the flow's close callback exactly once and announces the
// dismissal on the bus.
func (c *Controller) close(f *PendingFlow) {
	if f.onClose != nil {
		onClose := f.onClose
		f.onClose = nil
		onClose()
	}

	c.bus.Publish(events.TopicFlowClosed, events.FlowClosedEvent{RequestID: f.ID})
}
