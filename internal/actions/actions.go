// Package actions defines the console's command set and the rules for
// when each command is available.
package actions

// Action идентифицирует одну команду консоли
type Action string

const (
	Find       Action = "find"
	Add        Action = "add"
	Remove     Action = "remove"
	MoveTop    Action = "move_top"
	MoveUp     Action = "move_up"
	MoveDown   Action = "move_down"
	MoveBottom Action = "move_bottom"
	Identify   Action = "identify"
	Configure  Action = "configure"
	Reference  Action = "reference"
	Capture    Action = "capture"
	Copy       Action = "copy"
	Export     Action = "export"
	Clear      Action = "clear"
	Refresh    Action = "refresh"
	Quit       Action = "quit"
)

// All returns every action in a stable order
func All() []Action {
	return []Action{
		Find, Add, Remove,
		MoveTop, MoveUp, MoveDown, MoveBottom,
		Identify, Configure, Reference, Capture, Copy,
		Export, Clear, Refresh, Quit,
	}
}

// Valid reports whether the name is a known action
func Valid(a Action) bool {
	switch a {
	case Find, Add, Remove,
		MoveTop, MoveUp, MoveDown, MoveBottom,
		Identify, Configure, Reference, Capture, Copy,
		Export, Clear, Refresh, Quit:
		return true
	}
	return false
}

// State maps each action to whether it may currently be invoked. It is
// fully derived, never mutated independently.
type State map[Action]bool

// Equal reports whether two states enable exactly the same actions
func (s State) Equal(other State) bool {
	if len(s) != len(other) {
		return false
	}
	for a, enabled := range s {
		if other[a] != enabled {
			return false
		}
	}
	return true
}

// Clone returns a copy of the state
func (s State) Clone() State {
	out := make(State, len(s))
	for a, enabled := range s {
		out[a] = enabled
	}
	return out
}
