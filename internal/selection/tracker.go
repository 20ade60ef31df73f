// Package selection tracks which fleet entries are currently selected.
// The tracker stores addresses, never positions, so a selection survives
// fleet reordering unchanged. Like the fleet store it is not safe for
// concurrent use; the coordinator serializes access.
package selection

import (
	"slices"
)

// Tracker владеет текущим выбором серверов
type Tracker struct {
	selected map[string]bool

	// anchor is the last address passed to a non-range selection call,
	// used as the starting point for ExtendRangeTo.
	anchor string
}

func New() *Tracker {
	return &Tracker{selected: make(map[string]bool)}
}

// Set replaces the whole selection. Addresses not accepted by exists are
// silently dropped: async removal races are expected, never an error.
// Returns true if the resulting selection differs from the prior one.
func (t *Tracker) Set(addresses []string, exists func(string) bool) bool {
	next := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		if exists(a) {
			next[a] = true
		}
	}
	if len(addresses) > 0 {
		t.anchor = addresses[len(addresses)-1]
	}

	if equalSets(t.selected, next) {
		return false
	}
	t.selected = next
	return true
}

// Toggle flips a single address in or out of the selection. The toggled
// address becomes the range anchor either way.
func (t *Tracker) Toggle(address string, exists func(string) bool) bool {
	next := make([]string, 0, len(t.selected)+1)
	for a := range t.selected {
		if a != address {
			next = append(next, a)
		}
	}
	if !t.selected[address] {
		next = append(next, address)
	}
	changed := t.Set(next, exists)
	t.anchor = address
	return changed
}

// ExtendRangeTo selects the contiguous block of fleet positions between
// the anchor and the given address. Without a usable anchor it falls
// back to selecting just the target (and anchors there).
func (t *Tracker) ExtendRangeTo(address string, order []string) bool {
	from := slices.Index(order, t.anchor)
	to := slices.Index(order, address)
	if to < 0 {
		return false
	}
	if from < 0 {
		return t.Set([]string{address}, func(string) bool { return true })
	}
	if from > to {
		from, to = to, from
	}

	next := make(map[string]bool, to-from+1)
	for _, a := range order[from : to+1] {
		next[a] = true
	}
	if equalSets(t.selected, next) {
		return false
	}
	t.selected = next
	return true
}

// Drop removes addresses from the selection, typically because the
// entries were removed from the fleet. The anchor is left alone: a stale
// anchor is harmless since ExtendRangeTo looks it up by address.
func (t *Tracker) Drop(addresses []string) bool {
	changed := false
	for _, a := range addresses {
		if t.selected[a] {
			delete(t.selected, a)
			changed = true
		}
	}
	return changed
}

// Contains reports whether the address is selected
func (t *Tracker) Contains(address string) bool {
	return t.selected[address]
}

// Len returns the selection size
func (t *Tracker) Len() int {
	return len(t.selected)
}

// Anchor returns the current range anchor ("" when unset)
func (t *Tracker) Anchor() string {
	return t.anchor
}

// Snapshot returns the selected addresses in fleet order
func (t *Tracker) Snapshot(order []string) []string {
	result := make([]string, 0, len(t.selected))
	for _, a := range order {
		if t.selected[a] {
			result = append(result, a)
		}
	}
	return result
}

// AsSet returns a copy of the selection as a set
func (t *Tracker) AsSet() map[string]bool {
	set := make(map[string]bool, len(t.selected))
	for a := range t.selected {
		set[a] = true
	}
	return set
}

func equalSets(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
