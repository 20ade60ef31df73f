package coordinator

import (
	"github.com/pv/camfleet-go/internal/actions"
	"github.com/pv/camfleet-go/internal/fleet"
)

// Callbacks вызываются при изменении состояния координатора.
// Every callback carries a full snapshot, never a diff, and is invoked
// outside the coordinator's lock so handlers may call back in.
type Callbacks struct {
	FleetChanged       func(entries []fleet.ServerEntry)
	SelectionChanged   func(selected []string)
	ActionStateChanged func(state actions.State)
	ImagesChanged      func(images []fleet.ImageRecord)

	// ActionCompleted surfaces executor results unchanged, failure and
	// all, per the addresses the executor reported.
	ActionCompleted func(action actions.Action, addresses []string, failure error)
}

// event flags for flush
const (
	evFleet = 1 << iota
	evSelection
	evImages
)

// snapshotSet is what one mutation decided to announce
type snapshotSet struct {
	fleet     []fleet.ServerEntry
	selection []string
	images    []fleet.ImageRecord
	state     actions.State // nil when enablement did not change

	hasFleet     bool
	hasSelection bool
	hasImages    bool
}

func (c *Coordinator) emit(s snapshotSet) {
	if s.hasFleet && c.cb.FleetChanged != nil {
		c.cb.FleetChanged(s.fleet)
	}
	if s.hasSelection && c.cb.SelectionChanged != nil {
		c.cb.SelectionChanged(s.selection)
	}
	if s.hasImages && c.cb.ImagesChanged != nil {
		c.cb.ImagesChanged(s.images)
	}
	if s.state != nil && c.cb.ActionStateChanged != nil {
		c.cb.ActionStateChanged(s.state)
	}
}
