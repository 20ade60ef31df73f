package coordinator

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/pv/camfleet-go/internal/actions"
	"github.com/pv/camfleet-go/internal/fleet"
)

// recordingExecutor captures dispatches without completing them, so
// tests control exactly when completions arrive.
type recordingExecutor struct {
	mu         sync.Mutex
	dispatched []dispatch
}

type dispatch struct {
	action    actions.Action
	addresses []string
}

func (e *recordingExecutor) Execute(action actions.Action, addresses []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dispatched = append(e.dispatched, dispatch{action, addresses})
}

func (e *recordingExecutor) last(t *testing.T) dispatch {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.dispatched) == 0 {
		t.Fatal("no dispatches recorded")
	}
	return e.dispatched[len(e.dispatched)-1]
}

type recordingPipeline struct {
	exported [][]string
	cleared  [][]string
}

func (p *recordingPipeline) Export(imageIDs []string) { p.exported = append(p.exported, imageIDs) }
func (p *recordingPipeline) Clear(addresses []string) { p.cleared = append(p.cleared, addresses) }

func newTestCoordinator(t *testing.T, addresses ...string) (*Coordinator, *recordingExecutor, *recordingPipeline) {
	t.Helper()

	exec := &recordingExecutor{}
	pipe := &recordingPipeline{}
	c := New(exec, pipe, nil)
	for _, a := range addresses {
		if err := c.Add(fleet.ServerEntry{Address: a}); err != nil {
			t.Fatalf("Add(%s) failed: %v", a, err)
		}
	}
	return c, exec, pipe
}

func fleetOrder(c *Coordinator) []string {
	entries := c.Fleet()
	order := make([]string, len(entries))
	for i, e := range entries {
		order[i] = e.Address
	}
	return order
}

func TestAddDuplicateRejected(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1", "s2")

	err := c.Add(fleet.ServerEntry{Address: "s1"})
	if !errors.Is(err, fleet.ErrDuplicateIdentifier) {
		t.Fatalf("expected ErrDuplicateIdentifier, got %v", err)
	}
	if len(c.Fleet()) != 2 {
		t.Errorf("fleet length changed by rejected add: %d", len(c.Fleet()))
	}
}

func TestSelectClampsAndOrders(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1", "s2", "s3")

	c.Select([]string{"s3", "ghost", "s1"})
	if got := c.Selection(); !slices.Equal(got, []string{"s1", "s3"}) {
		t.Errorf("selection = %v, want [s1 s3] in fleet order", got)
	}
}

func TestRemoveStripsSelectionAndInFlight(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1", "s2", "s3")

	c.Select([]string{"s2", "s3"})
	if err := c.Invoke(actions.Capture); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	c.Remove([]string{"s2"})

	if slices.Contains(c.Selection(), "s2") {
		t.Error("removed server still selected")
	}
	if _, ok := c.InFlight()["s2"]; ok {
		t.Error("removed server still in flight")
	}
	// The undisturbed sibling keeps its bookkeeping
	if c.InFlight()["s3"] != actions.Capture {
		t.Error("in-flight record for s3 lost")
	}
}

func TestInvokeDisabledActionHasNoSideEffect(t *testing.T) {
	c, exec, _ := newTestCoordinator(t, "s1", "s2")

	// Nothing selected: Capture must be rejected without dispatching
	err := c.Invoke(actions.Capture)
	if !errors.Is(err, ErrActionNotPermitted) {
		t.Fatalf("expected ErrActionNotPermitted, got %v", err)
	}
	exec.mu.Lock()
	n := len(exec.dispatched)
	exec.mu.Unlock()
	if n != 0 {
		t.Error("disabled action reached the executor")
	}
	if len(c.InFlight()) != 0 {
		t.Error("disabled action left in-flight records")
	}
}

func TestInvokeUnknownAction(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1")

	if err := c.Invoke(actions.Action("reboot")); !errors.Is(err, ErrActionNotPermitted) {
		t.Fatalf("expected ErrActionNotPermitted for unknown action, got %v", err)
	}
}

// The walkthrough from the enablement contract: reorder a scattered
// selection, capture on it, and check the concurrency rules.
func TestCaptureScenario(t *testing.T) {
	c, exec, _ := newTestCoordinator(t, "s1", "s2", "s3", "s4")

	c.Select([]string{"s2", "s4"})
	if err := c.MoveTop(); err != nil {
		t.Fatalf("MoveTop failed: %v", err)
	}
	if got := fleetOrder(c); !slices.Equal(got, []string{"s2", "s4", "s1", "s3"}) {
		t.Fatalf("order after MoveTop = %v", got)
	}
	if got := c.Selection(); !slices.Equal(got, []string{"s2", "s4"}) {
		t.Fatalf("selection after MoveTop = %v, want [s2 s4]", got)
	}

	if err := c.Invoke(actions.Capture); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	d := exec.last(t)
	if d.action != actions.Capture || !slices.Equal(d.addresses, []string{"s2", "s4"}) {
		t.Fatalf("unexpected dispatch %+v", d)
	}
	inflight := c.InFlight()
	if inflight["s2"] != actions.Capture || inflight["s4"] != actions.Capture {
		t.Fatalf("in-flight bookkeeping = %v", inflight)
	}

	// Removing a disjoint server succeeds immediately
	c.Remove([]string{"s1"})
	if slices.Contains(fleetOrder(c), "s1") {
		t.Error("s1 still present")
	}

	// A second capture against the in-flight selection is rejected
	c.Select([]string{"s2"})
	if err := c.Invoke(actions.Capture); !errors.Is(err, ErrActionNotPermitted) {
		t.Fatalf("expected ErrActionNotPermitted while s2 in flight, got %v", err)
	}

	// Completion clears the bookkeeping and re-enables the action
	c.Complete(actions.Capture, []string{"s2", "s4"}, nil)
	if len(c.InFlight()) != 0 {
		t.Fatalf("in-flight records left after completion: %v", c.InFlight())
	}
	if err := c.Invoke(actions.Capture); err != nil {
		t.Fatalf("Capture after completion failed: %v", err)
	}
}

func TestCompleteForRemovedServer(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1")

	c.Select([]string{"s1"})
	if err := c.Invoke(actions.Identify); err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	c.Remove([]string{"s1"})

	// Late completion for a server that is gone must be a no-op
	c.Complete(actions.Identify, []string{"s1"}, nil)
	if len(c.InFlight()) != 0 {
		t.Errorf("in-flight records after late completion: %v", c.InFlight())
	}
}

func TestCompletionFailureSurfaced(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1")

	var gotAction actions.Action
	var gotAddresses []string
	var gotFailure error
	c.SetCallbacks(Callbacks{
		ActionCompleted: func(action actions.Action, addresses []string, failure error) {
			gotAction = action
			gotAddresses = addresses
			gotFailure = failure
		},
	})

	c.Select([]string{"s1"})
	if err := c.Invoke(actions.Configure); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	boom := errors.New("lens cap on")
	c.Complete(actions.Configure, []string{"s1"}, boom)

	if gotAction != actions.Configure || !slices.Equal(gotAddresses, []string{"s1"}) {
		t.Fatalf("completion callback got %v %v", gotAction, gotAddresses)
	}
	if !errors.Is(gotFailure, boom) {
		t.Errorf("failure not surfaced unchanged: %v", gotFailure)
	}
	// No automatic retry: the failure left nothing in flight
	if len(c.InFlight()) != 0 {
		t.Errorf("failed action still in flight: %v", c.InFlight())
	}
}

func TestActionStateNotifications(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1", "s2")

	var states []actions.State
	c.SetCallbacks(Callbacks{
		ActionStateChanged: func(state actions.State) {
			states = append(states, state)
		},
	})

	c.Select([]string{"s1"})
	if len(states) != 1 {
		t.Fatalf("expected one state notification, got %d", len(states))
	}
	if !states[0][actions.Capture] {
		t.Error("Capture not enabled after selection")
	}

	// Selecting the same thing again must stay silent
	c.Select([]string{"s1"})
	if len(states) != 1 {
		t.Errorf("redundant state notification emitted: %d", len(states))
	}
}

func TestInvokeClear(t *testing.T) {
	c, _, pipe := newTestCoordinator(t, "s1", "s2")

	if err := c.AddImage(fleet.ImageRecord{Server: "s1"}); err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}
	if err := c.AddImage(fleet.ImageRecord{Server: "s2"}); err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}

	c.Select([]string{"s1"})
	if err := c.Invoke(actions.Clear); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if len(pipe.cleared) != 1 || !slices.Equal(pipe.cleared[0], []string{"s1"}) {
		t.Fatalf("pipeline clear calls: %v", pipe.cleared)
	}
	images := c.Images()
	if len(images) != 1 || images[0].Server != "s2" {
		t.Errorf("unexpected images after clear: %+v", images)
	}
}

func TestInvokeExport(t *testing.T) {
	c, _, pipe := newTestCoordinator(t, "s1")

	// No images: Export disabled
	if err := c.Invoke(actions.Export); !errors.Is(err, ErrActionNotPermitted) {
		t.Fatalf("expected ErrActionNotPermitted with empty collection, got %v", err)
	}

	if err := c.AddImage(fleet.ImageRecord{Server: "s1"}); err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}
	if err := c.Invoke(actions.Export); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(pipe.exported) != 1 || len(pipe.exported[0]) != 1 {
		t.Fatalf("pipeline export calls: %v", pipe.exported)
	}
}

func TestAddImageMintsID(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1")

	if err := c.AddImage(fleet.ImageRecord{Server: "s1"}); err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}

	images := c.Images()
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
	if images[0].ID == "" {
		t.Error("image record left without an identifier")
	}
	if images[0].Timestamp.IsZero() {
		t.Error("image record left without a timestamp")
	}
}

func TestInvokeRemoveUsesSelection(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1", "s2", "s3")

	c.Select([]string{"s1", "s3"})
	if err := c.Invoke(actions.Remove); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if got := fleetOrder(c); !slices.Equal(got, []string{"s2"}) {
		t.Errorf("fleet after Remove = %v, want [s2]", got)
	}
	if len(c.Selection()) != 0 {
		t.Errorf("selection not emptied by Remove: %v", c.Selection())
	}
}

func TestMoveUpPinnedRun(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "a", "b", "c")

	c.Select([]string{"a", "b"})
	// Topmost block: the move is disabled, not a silent shuffle
	if err := c.MoveUp(); !errors.Is(err, ErrActionNotPermitted) {
		t.Fatalf("expected ErrActionNotPermitted, got %v", err)
	}
	if got := fleetOrder(c); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("order changed by rejected move: %v", got)
	}
}

func TestUpdateStatusUnknownAddress(t *testing.T) {
	c, _, _ := newTestCoordinator(t, "s1")

	// Must not panic or notify
	notified := false
	c.SetCallbacks(Callbacks{
		FleetChanged: func([]fleet.ServerEntry) { notified = true },
	})
	c.UpdateStatus("ghost", fleet.StatusOnline)
	if notified {
		t.Error("status update for unknown address emitted a notification")
	}

	c.UpdateStatus("s1", fleet.StatusBusy)
	if !notified {
		t.Error("real status update emitted no notification")
	}
	if e := c.Fleet()[0]; e.Status != fleet.StatusBusy {
		t.Errorf("status = %q, want busy", e.Status)
	}
}
