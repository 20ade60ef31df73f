// Package coordinator is the single writer over the fleet list, the
// selection and the in-flight bookkeeping. Every mutation, whether a
// user intent or an asynchronous status or completion event, funnels
// through its mutex, recomputes action enablement, and announces
// snapshots.
package coordinator

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pv/camfleet-go/internal/actions"
	"github.com/pv/camfleet-go/internal/fleet"
	"github.com/pv/camfleet-go/internal/journal"
	"github.com/pv/camfleet-go/internal/logger"
	"github.com/pv/camfleet-go/internal/selection"
)

var ErrActionNotPermitted = errors.New("action not permitted in the current state")

// Coordinator владеет списком флота, выбором и учётом незавершённых операций
type Coordinator struct {
	mu       sync.Mutex
	store    *fleet.Store
	sel      *selection.Tracker
	inflight map[string]actions.Action // address -> pending action

	lastState actions.State // memo: only decides whether to notify

	exec     Executor
	pipeline ImagePipeline
	jrnl     Journal
	cb       Callbacks
}

// New creates a coordinator. Executor, pipeline and journal may be nil;
// the corresponding dispatches then only update local state.
func New(exec Executor, pipeline ImagePipeline, jrnl Journal) *Coordinator {
	c := &Coordinator{
		store:    fleet.NewStore(),
		sel:      selection.New(),
		inflight: make(map[string]actions.Action),
		exec:     exec,
		pipeline: pipeline,
		jrnl:     jrnl,
	}
	c.lastState = actions.Compute(c.view())
	return c
}

// SetStrictImages toggles rejection of images with unknown owners
func (c *Coordinator) SetStrictImages(strict bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.SetStrictImages(strict)
}

// SetCallbacks installs the notification callbacks. Call before wiring
// any event sources; the coordinator does not lock around the swap.
func (c *Coordinator) SetCallbacks(cb Callbacks) {
	c.cb = cb
}

func (c *Coordinator) view() actions.View {
	inflight := make(map[string]bool, len(c.inflight))
	for a := range c.inflight {
		inflight[a] = true
	}
	return actions.View{
		Order:      c.store.Order(),
		Selected:   c.sel.AsSet(),
		InFlight:   inflight,
		ImageCount: c.store.ImageCount(),
	}
}

// flush builds the snapshots for the given event mask and refreshes the
// enablement memo. Caller holds the lock; the result is emitted after
// release.
func (c *Coordinator) flush(mask int) snapshotSet {
	var s snapshotSet
	if mask&evFleet != 0 {
		s.hasFleet = true
		s.fleet = c.store.Entries()
	}
	if mask&evSelection != 0 {
		s.hasSelection = true
		s.selection = c.sel.Snapshot(c.store.Order())
	}
	if mask&evImages != 0 {
		s.hasImages = true
		s.images = c.store.Images()
	}

	next := actions.Compute(c.view())
	if !next.Equal(c.lastState) {
		c.lastState = next
		s.state = next.Clone()
	}
	return s
}

// Add appends a discovered or manually added server to the fleet
func (c *Coordinator) Add(entry fleet.ServerEntry) error {
	c.mu.Lock()
	if err := c.store.Add(entry); err != nil {
		c.mu.Unlock()
		return err
	}
	s := c.flush(evFleet)
	c.mu.Unlock()

	c.emit(s)
	return nil
}

// Remove drops the named servers. Unknown addresses are ignored. The
// removed servers leave the selection and the in-flight bookkeeping
// atomically, and their images become orphaned.
func (c *Coordinator) Remove(addresses []string) {
	c.mu.Lock()
	removed := c.store.Remove(addresses)
	if len(removed) == 0 {
		c.mu.Unlock()
		return
	}

	mask := evFleet | evImages
	if c.sel.Drop(removed) {
		mask |= evSelection
	}
	for _, a := range removed {
		if pending, ok := c.inflight[a]; ok {
			logger.Debug("detaching in-flight action from removed server",
				"server", a, "action", pending)
			delete(c.inflight, a)
		}
	}
	s := c.flush(mask)
	c.mu.Unlock()

	c.emit(s)
}

// UpdateStatus records a status report from the network layer. Reports
// for unknown addresses are expected during removal races and ignored.
func (c *Coordinator) UpdateStatus(address string, status fleet.Status) {
	c.mu.Lock()
	if !c.store.UpdateStatus(address, status) {
		c.mu.Unlock()
		return
	}
	s := c.flush(evFleet)
	c.mu.Unlock()

	c.emit(s)
}

// Select replaces the selection with the given addresses
func (c *Coordinator) Select(addresses []string) {
	c.mu.Lock()
	if !c.sel.Set(addresses, c.store.Contains) {
		c.mu.Unlock()
		return
	}
	s := c.flush(evSelection)
	c.mu.Unlock()

	c.emit(s)
}

// Toggle flips a single address in or out of the selection
func (c *Coordinator) Toggle(address string) {
	c.mu.Lock()
	if !c.sel.Toggle(address, c.store.Contains) {
		c.mu.Unlock()
		return
	}
	s := c.flush(evSelection)
	c.mu.Unlock()

	c.emit(s)
}

// ExtendRangeTo selects the contiguous block between the anchor and the
// given address
func (c *Coordinator) ExtendRangeTo(address string) {
	c.mu.Lock()
	if !c.sel.ExtendRangeTo(address, c.store.Order()) {
		c.mu.Unlock()
		return
	}
	s := c.flush(evSelection)
	c.mu.Unlock()

	c.emit(s)
}

// MoveTop moves the selection to the top of the fleet list
func (c *Coordinator) MoveTop() error { return c.move(actions.MoveTop) }

// MoveUp moves each selected run up by one position
func (c *Coordinator) MoveUp() error { return c.move(actions.MoveUp) }

// MoveDown moves each selected run down by one position
func (c *Coordinator) MoveDown() error { return c.move(actions.MoveDown) }

// MoveBottom moves the selection to the bottom of the fleet list
func (c *Coordinator) MoveBottom() error { return c.move(actions.MoveBottom) }

func (c *Coordinator) move(action actions.Action) error {
	c.mu.Lock()
	if !actions.Compute(c.view())[action] {
		c.mu.Unlock()
		return ErrActionNotPermitted
	}
	c.applyMoveLocked(action)
	s := c.flush(evFleet)
	c.mu.Unlock()

	c.emit(s)
	return nil
}

func (c *Coordinator) applyMoveLocked(action actions.Action) {
	order := c.store.Order()
	selected := c.sel.AsSet()

	switch action {
	case actions.MoveTop:
		order = fleet.MoveTop(order, selected)
	case actions.MoveUp:
		order = fleet.MoveUp(order, selected)
	case actions.MoveDown:
		order = fleet.MoveDown(order, selected)
	case actions.MoveBottom:
		order = fleet.MoveBottom(order, selected)
	}
	c.store.SetOrder(order)
}

// Invoke dispatches a named action against the current state. A
// disabled or unknown action is rejected with ErrActionNotPermitted and
// has no side effect whatsoever.
func (c *Coordinator) Invoke(action actions.Action) error {
	c.mu.Lock()
	if !actions.Valid(action) || !actions.Compute(c.view())[action] {
		c.mu.Unlock()
		return ErrActionNotPermitted
	}

	var (
		mask  int
		after func()
	)

	switch action {
	case actions.MoveTop, actions.MoveUp, actions.MoveDown, actions.MoveBottom:
		c.applyMoveLocked(action)
		mask = evFleet

	case actions.Remove:
		// Handled inline rather than via Remove to keep everything
		// under one critical section.
		removed := c.store.Remove(c.sel.Snapshot(c.store.Order()))
		mask = evFleet | evImages
		if c.sel.Drop(removed) {
			mask |= evSelection
		}
		for _, a := range removed {
			delete(c.inflight, a)
		}

	case actions.Add, actions.Quit:
		// Both are presentation-level intents (open a dialog, close the
		// console); nothing to coordinate.

	case actions.Find:
		c.journal(action, nil, journal.EventDispatched, "")
		if exec := c.exec; exec != nil {
			after = func() { exec.Execute(action, nil) }
		}

	case actions.Refresh:
		targets := c.store.Order()
		c.journal(action, targets, journal.EventDispatched, "")
		if exec := c.exec; exec != nil {
			after = func() { exec.Execute(action, targets) }
		}

	case actions.Export:
		images := c.store.Images()
		ids := make([]string, len(images))
		for i, img := range images {
			ids[i] = img.ID
		}
		c.journal(action, nil, journal.EventDispatched, "")
		if pipe := c.pipeline; pipe != nil {
			after = func() { pipe.Export(ids) }
		}

	case actions.Clear:
		targets := c.sel.Snapshot(c.store.Order())
		c.journal(action, targets, journal.EventDispatched, "")
		c.store.ClearImages(targets)
		mask = evImages
		if pipe := c.pipeline; pipe != nil {
			after = func() { pipe.Clear(targets) }
		}

	default:
		// Identify, Configure, Reference, Capture, Copy: batch commands
		// for the servers themselves. Mark the targets in flight and
		// hand off; completion arrives asynchronously.
		targets := c.sel.Snapshot(c.store.Order())
		for _, a := range targets {
			c.inflight[a] = action
		}
		c.journal(action, targets, journal.EventDispatched, "")
		if exec := c.exec; exec != nil {
			after = func() { exec.Execute(action, targets) }
		}
	}

	s := c.flush(mask)
	c.mu.Unlock()

	// Announce the dispatch before handing off so a fast executor's
	// completion cannot overtake it.
	c.emit(s)
	if after != nil {
		after()
	}
	return nil
}

// Complete resolves an earlier dispatch. Addresses no longer in flight
// (or no longer in the fleet) are ignored: removal and completion can
// race. A non-nil failure is surfaced unchanged to the presentation
// layer; the coordinator never retries.
func (c *Coordinator) Complete(action actions.Action, addresses []string, failure error) {
	c.mu.Lock()
	for _, a := range addresses {
		if c.inflight[a] == action {
			delete(c.inflight, a)
		} else {
			logger.Debug("completion for address not in flight",
				"server", a, "action", action)
		}
	}

	event := journal.EventCompleted
	detail := ""
	if failure != nil {
		event = journal.EventFailed
		detail = failure.Error()
	}
	c.journal(action, addresses, event, detail)

	s := c.flush(0)
	c.mu.Unlock()

	c.emit(s)
	if c.cb.ActionCompleted != nil {
		c.cb.ActionCompleted(action, addresses, failure)
	}
}

// AddImage records an image delivered by the image pipeline, typically
// after a capture completed. A record without an ID gets one minted.
func (c *Coordinator) AddImage(rec fleet.ImageRecord) error {
	c.mu.Lock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if err := c.store.AddImage(rec); err != nil {
		c.mu.Unlock()
		return err
	}
	s := c.flush(evImages)
	c.mu.Unlock()

	c.emit(s)
	return nil
}

func (c *Coordinator) journal(action actions.Action, servers []string, event, detail string) {
	if c.jrnl != nil {
		c.jrnl.Append(string(action), servers, event, detail)
	}
}

// Fleet returns a snapshot of the fleet list
func (c *Coordinator) Fleet() []fleet.ServerEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Entries()
}

// Selection returns the selected addresses in fleet order
func (c *Coordinator) Selection() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Snapshot(c.store.Order())
}

// Images returns a snapshot of the image collection
func (c *Coordinator) Images() []fleet.ImageRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Images()
}

// ActionState returns the last computed enablement table
func (c *Coordinator) ActionState() actions.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastState.Clone()
}

// InFlight returns a copy of the pending-operation bookkeeping
func (c *Coordinator) InFlight() map[string]actions.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]actions.Action, len(c.inflight))
	for a, act := range c.inflight {
		out[a] = act
	}
	return out
}
