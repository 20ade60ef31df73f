package actions

// View is everything enablement depends on: the fleet order, the
// selection, the set of addresses with an operation still in flight, and
// the image-collection size. Recomputing from a View is the single
// source of truth; nothing else may flip an action on or off.
type View struct {
	Order      []string
	Selected   map[string]bool
	InFlight   map[string]bool
	ImageCount int
}

// Compute derives the enabled state of every action from the view
func Compute(v View) State {
	selCount := 0
	for _, a := range v.Order {
		if v.Selected[a] {
			selCount++
		}
	}

	// An action targeting the selection conflicts with any unresolved
	// operation on one of the selected servers.
	conflict := false
	for a := range v.Selected {
		if v.InFlight[a] {
			conflict = true
			break
		}
	}

	onSelection := selCount > 0 && !conflict

	// MoveTop/MoveUp are pointless once the selection already occupies
	// the topmost contiguous block: they need at least one unselected
	// entry ahead of a selected one. MoveBottom/MoveDown mirror that.
	canMoveUp := false
	seenUnselected := false
	for _, a := range v.Order {
		if v.Selected[a] {
			if seenUnselected {
				canMoveUp = true
				break
			}
		} else {
			seenUnselected = true
		}
	}
	canMoveDown := false
	seenUnselected = false
	for i := len(v.Order) - 1; i >= 0; i-- {
		if v.Selected[v.Order[i]] {
			if seenUnselected {
				canMoveDown = true
				break
			}
		} else {
			seenUnselected = true
		}
	}

	return State{
		Find:    true,
		Add:     true,
		Refresh: true,
		Quit:    true,

		Remove:    onSelection,
		Identify:  onSelection,
		Configure: onSelection,
		Capture:   onSelection,
		Copy:      onSelection,
		Clear:     onSelection,

		// Reference copies one server's settings to all others, so it
		// needs exactly one source and at least one other server.
		Reference: onSelection && selCount == 1 && len(v.Order) > 1,

		MoveTop:    onSelection && canMoveUp,
		MoveUp:     onSelection && canMoveUp,
		MoveDown:   onSelection && canMoveDown,
		MoveBottom: onSelection && canMoveDown,

		Export: v.ImageCount > 0,
	}
}
